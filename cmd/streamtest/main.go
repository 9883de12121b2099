// streamtest connects to the venue stream and prints parsed events to the
// console. Useful for checking credentials and topic names.
//
// Usage: streamtest --topics trade_updates,Q.AAPL
//
// Required environment variables:
//
//	APCA_API_KEY_ID     - API key ID
//	APCA_API_SECRET_KEY - API secret
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quantfeed/alpaca-stream/internal/config"
	"github.com/quantfeed/alpaca-stream/internal/stream"
)

func main() {
	topicsFlag := flag.String("topics", "trade_updates", "comma-separated topic names")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("missing credentials", "error", err)
		logger.Info("set APCA_API_KEY_ID and APCA_API_SECRET_KEY")
		os.Exit(1)
	}

	topics := strings.Split(*topicsFlag, ",")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
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
	}, logger)

	_, err := mux.Register(`.*`, func(ctx context.Context, topic string, ev any) error {
		if *verbose {
			data, _ := json.MarshalIndent(ev, "", "  ")
			fmt.Printf("[%s]\n%s\n", topic, data)
			return nil
		}
		fmt.Printf("[%s] %T\n", topic, ev)
		return nil
	}, nil)
	if err != nil {
		logger.Error("failed to register handler", "error", err)
		os.Exit(1)
	}

	logger.Info("subscribing", "topics", topics)
	if err := mux.Subscribe(ctx, topics); err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	if err := mux.Consume(ctx); err != nil && ctx.Err() == nil {
		logger.Error("stream terminated", "error", err)
		os.Exit(1)
	}

	mux.Close()
	logger.Info("done")
}
