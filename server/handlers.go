// Package server exposes the HTTP API handlers.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Probes are the live data sources the handlers report on. The function
// fields decouple the server from the gateway and cache packages.
type Probes struct {
	Start            time.Time
	GatewayConnected func() bool
	SearchCacheSize  func() int
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	probes *Probes
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(probes *Probes) *Handlers {
	return &Handlers{probes: probes}
}

// HandleHealthz responds to liveness probe requests. The process being able
// to answer is the whole check; gateway state belongs to readiness.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests. The bot is ready once
// the Discord gateway session is established.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"gateway", func() error {
			if h.probes.GatewayConnected == nil || !h.probes.GatewayConnected() {
				return fmt.Errorf("gateway not connected")
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports a snapshot of the bot's runtime state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	connected := false
	if h.probes.GatewayConnected != nil {
		connected = h.probes.GatewayConnected()
	}
	cacheSize := 0
	if h.probes.SearchCacheSize != nil {
		cacheSize = h.probes.SearchCacheSize()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":            "ok",
		"uptime_seconds":    int(time.Since(h.probes.Start).Seconds()),
		"gateway_connected": connected,
		"search_cache_size": cacheSize,
	})
}
