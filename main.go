// Command buttercup is the main entrypoint for the transcription search bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Registers the slash commands with Discord.
//   - Connects to the Discord gateway and dispatches interactions and
//     reaction events to the bot layer.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/grafeasgroup/buttercup/blossom"
	"github.com/grafeasgroup/buttercup/bot"
	"github.com/grafeasgroup/buttercup/config"
	"github.com/grafeasgroup/buttercup/discord"
	"github.com/grafeasgroup/buttercup/server"
	"github.com/grafeasgroup/buttercup/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateBotReady(); err != nil {
		slog.Error("config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("buttercup", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := discord.New(cfg.DiscordBotToken, cfg.DiscordApplicationID)
	api := blossom.New(cfg.BlossomAPIURL, cfg.BlossomAPIKey)
	api.HTTPClient.Timeout = cfg.BlossomTimeout
	b := bot.New(ctx, client, api, cfg.CommandsPerMinute)

	// Bulk-overwrite the slash commands so stale definitions never linger.
	regCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := client.RegisterCommands(regCtx, b.Commands()); err != nil {
		cancel()
		slog.Error("command registration failed", slog.Any("err", err))
		os.Exit(1)
	}
	cancel()
	slog.Info("slash commands registered", slog.Int("count", len(b.Commands())))

	gateway := &discord.Gateway{
		Token:   cfg.DiscordBotToken,
		Intents: discord.IntentGuildMessageReactions | discord.IntentDirectMessageReactions,
		OnReady: func() {
			telemetry.UpdateGatewayGauge(true)
			slog.Info("gateway ready")
		},
		OnInteraction: b.HandleInteraction,
		OnReactionAdd: b.HandleReaction,
	}

	probes := &server.Probes{
		Start:            time.Now().UTC(),
		GatewayConnected: gateway.Connected,
		SearchCacheSize:  b.CacheSize,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := gateway.Run(ctx)
		telemetry.UpdateGatewayGauge(false)
		return err
	})
	g.Go(func() error {
		return server.Start(ctx, probes, cfg.HTTPAddr)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("worker exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
