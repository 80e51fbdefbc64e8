// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsReceived  *prometheus.CounterVec
	CommandsFailed    *prometheus.CounterVec
	SearchFetches     prometheus.Counter
	SearchWindowHits  prometheus.Counter
	ReactionsHandled  prometheus.Counter
	ReactionsIgnored  prometheus.Counter
	BlossomErrors     prometheus.Counter
	GatewayReconnects prometheus.Counter

	// Histograms (seconds)
	BlossomRequestDuration prometheus.Observer
	CommandDuration        prometheus.Observer

	// Gauges
	SearchCacheSize prometheus.Gauge
	GatewayUpGauge  prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "buttercup_commands_received_total", Help: "Number of slash commands received"}, []string{"command"})
		CommandsFailed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "buttercup_commands_failed_total", Help: "Number of slash commands that ended in an error reply"}, []string{"command"})
		SearchFetches = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_search_fetches_total", Help: "Number of Blossom search requests issued by pagination"})
		SearchWindowHits = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_search_window_hits_total", Help: "Number of pagination steps served from the cached fetch window"})
		ReactionsHandled = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_reactions_handled_total", Help: "Number of reaction events that triggered pagination"})
		ReactionsIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_reactions_ignored_total", Help: "Number of reaction events ignored (cache miss, wrong user, invalid control)"})
		BlossomErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_blossom_errors_total", Help: "Number of failed Blossom API requests"})
		GatewayReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "buttercup_gateway_reconnects_total", Help: "Number of gateway reconnect attempts"})
		BlossomRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "buttercup_blossom_request_duration_seconds", Help: "Blossom request duration seconds", Buckets: prometheus.DefBuckets})
		CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "buttercup_command_duration_seconds", Help: "Slash command handling duration seconds", Buckets: prometheus.DefBuckets})
		SearchCacheSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "buttercup_search_cache_size", Help: "Current number of cached paginated searches"})
		GatewayUpGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "buttercup_gateway_up", Help: "Gateway connected=1 disconnected=0"})
	})
}

// UpdateGatewayGauge sets the gauge to 1 if connected else 0.
func UpdateGatewayGauge(connected bool) {
	if GatewayUpGauge != nil {
		if connected {
			GatewayUpGauge.Set(1)
		} else {
			GatewayUpGauge.Set(0)
		}
	}
}

// SetSearchCacheSize records the current cached search count.
func SetSearchCacheSize(n int) {
	if SearchCacheSize != nil {
		SearchCacheSize.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
