// streamgw runs the streaming gateway: it holds authenticated connections
// to the venue's trading and market-data sockets, resubscribes across
// reconnects, and optionally records ticks to TimescaleDB and republishes
// events to NATS.
//
// Usage: streamgw --config configs/gateway.yaml
//
// Credentials may come from the config file or the APCA_API_KEY_ID /
// APCA_API_SECRET_KEY environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantfeed/alpaca-stream/internal/config"
	"github.com/quantfeed/alpaca-stream/internal/database"
	"github.com/quantfeed/alpaca-stream/internal/recorder"
	"github.com/quantfeed/alpaca-stream/internal/relay"
	"github.com/quantfeed/alpaca-stream/internal/stream"
	"github.com/quantfeed/alpaca-stream/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gateway.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting stream gateway",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"base_url", cfg.API.BaseURL,
		"data_url", cfg.API.DataURL,
		"topics", cfg.Stream.Topics,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	mux := stream.NewMux(stream.Config{
		BaseURL: cfg.API.BaseURL,
		DataURL: cfg.API.DataURL,
		Credentials: stream.Credentials{
			KeyID:     cfg.Credentials.KeyID,
			SecretKey: cfg.Credentials.SecretKey,
			OAuth:     cfg.Credentials.OAuth,
		},
		MaxRetries: cfg.Stream.MaxRetries,
		RetryWait:  cfg.Stream.RetryWait,
		BufferSize: cfg.Stream.BufferSize,
	}, logger)

	// Optional tick persistence.
	if cfg.Recorder.Enabled {
		pool, err := database.Connect(ctx, cfg.Recorder.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		recCfg := recorder.Config{
			BatchSize:     cfg.Recorder.BatchSize,
			FlushInterval: cfg.Recorder.FlushInterval,
		}

		trades := recorder.NewTradeRecorder(recCfg, pool, logger)
		if _, err := mux.Register(`^T\.`, trades.Handler(), nil); err != nil {
			logger.Error("failed to register trade recorder", "error", err)
			os.Exit(1)
		}
		trades.Start(ctx)
		defer stopWithTimeout(trades.Stop, logger)

		quotes := recorder.NewQuoteRecorder(recCfg, pool, logger)
		if _, err := mux.Register(`^Q\.`, quotes.Handler(), nil); err != nil {
			logger.Error("failed to register quote recorder", "error", err)
			os.Exit(1)
		}
		quotes.Start(ctx)
		defer stopWithTimeout(quotes.Stop, logger)

		logger.Info("recorder enabled",
			"host", cfg.Recorder.Database.Host,
			"database", cfg.Recorder.Database.Name,
		)
	}

	// Optional NATS republishing.
	if cfg.Relay.Enabled {
		rly, err := relay.Connect(relay.Config{
			URL:           cfg.Relay.URL,
			SubjectPrefix: cfg.Relay.SubjectPrefix,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer rly.Close()

		if _, err := mux.Register(`.*`, rly.Handler(), nil); err != nil {
			logger.Error("failed to register relay", "error", err)
			os.Exit(1)
		}

		logger.Info("relay enabled", "url", cfg.Relay.URL, "prefix", cfg.Relay.SubjectPrefix)
	}

	err = mux.Run(ctx, cfg.Stream.Topics)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway stopped")
}

func stopWithTimeout(stop func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("component stop failed", "error", err)
	}
}
