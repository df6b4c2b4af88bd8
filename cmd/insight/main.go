package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/atendezap/insight/internal/api"
	"github.com/atendezap/insight/internal/attribution"
	"github.com/atendezap/insight/internal/config"
	"github.com/atendezap/insight/internal/detect"
	"github.com/atendezap/insight/internal/events"
	"github.com/atendezap/insight/internal/feedback"
	"github.com/atendezap/insight/internal/llm"
	"github.com/atendezap/insight/internal/processor"
	"github.com/atendezap/insight/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("insight starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Redis catalog cache (optional)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		db.WithCache(redis.NewClient(opts))
		slog.Info("catalog cache enabled")
	}

	// LLM client (optional — without it the engine only serves context over HTTP)
	var replier processor.Replier
	if cfg.OpenAIAPIKey != "" {
		replier = llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		slog.Info("llm client ready", "model", cfg.OpenAIModel)
	} else {
		slog.Warn("OPENAI_API_KEY not set — replies disabled")
	}

	// NATS
	bus, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Engine components
	detector := detect.New(db, slog.Default())
	aggregator := feedback.New(db, slog.Default())
	attributor := attribution.New(db, slog.Default())

	// Processor — the main pipeline
	proc := processor.New(db, detector, aggregator, attributor, replier, bus, cfg.BasePrompt, cfg.SampleLimit, slog.Default())

	if err := bus.Subscribe(events.SubjectMessageReceived, proc.HandleMessageReceived); err != nil {
		slog.Error("failed to subscribe to inbound messages", "error", err)
		os.Exit(1)
	}
	if err := bus.Subscribe(events.SubjectMessageFeedback, proc.HandleFeedback); err != nil {
		slog.Error("failed to subscribe to feedback events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, detector, aggregator)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("insight ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("insight stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
