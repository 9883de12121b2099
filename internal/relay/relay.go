// Package relay republishes stream events to NATS so downstream consumers
// can fan out without holding their own venue connection. Subjects follow
// <prefix>.<family>.<symbol>, e.g. "alpaca.quotes.AAPL".
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/quantfeed/alpaca-stream/internal/model"
	"github.com/quantfeed/alpaca-stream/internal/stream"
)

// Config configures the relay.
type Config struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

// Relay publishes casted stream events to NATS subjects.
type Relay struct {
	cfg    Config
	logger *slog.Logger
	nc     *nats.Conn
}

// Connect dials the NATS server.
func Connect(cfg Config, logger *slog.Logger) (*Relay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "alpaca-stream-relay"
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("relay disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("relay reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Relay{cfg: cfg, logger: logger, nc: nc}, nil
}

// Close drains and closes the NATS connection.
func (r *Relay) Close() error {
	if r.nc == nil {
		return nil
	}
	return r.nc.Drain()
}

// Handler returns the stream handler that republishes every event it sees.
func (r *Relay) Handler() stream.HandlerFunc {
	return func(ctx context.Context, topic string, ev any) error {
		subject := r.subject(topic, ev)
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event for %s: %w", subject, err)
		}
		if err := r.nc.Publish(subject, payload); err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
		return nil
	}
}

// subject maps an event to its NATS subject.
func (r *Relay) subject(topic string, ev any) string {
	prefix := r.cfg.SubjectPrefix

	switch e := ev.(type) {
	case model.Trade:
		return prefix + ".trades." + e.Symbol
	case model.Quote:
		return prefix + ".quotes." + e.Symbol
	case model.Bar:
		return prefix + ".bars." + e.Symbol
	case model.TradeUpdate:
		return prefix + ".orders." + e.Order.Symbol
	case model.Account:
		return prefix + ".account"
	}

	// Raw passthrough events keep the topic, with dots made subject-safe.
	return prefix + ".raw." + strings.ReplaceAll(strings.ReplaceAll(topic, "/", "."), "..", ".")
}
