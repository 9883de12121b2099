package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config configures a Mux and its two underlying sessions.
type Config struct {
	BaseURL     string // trading API base URL
	DataURL     string // market data base URL
	Credentials Credentials

	MaxRetries       int           // per-session reconnect budget
	RetryWait        time.Duration // linear backoff base
	HandshakeTimeout time.Duration
	DrainTimeout     time.Duration
	BufferSize       int

	// RebuildWait paces the outer rebuild loop in Run so a persistent
	// failure does not spin hot.
	RebuildWait time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.alpaca.markets"
	}
	if c.DataURL == "" {
		c.DataURL = "https://data.alpaca.markets"
	}
	if c.RebuildWait == 0 {
		c.RebuildWait = time.Second
	}
}

// Mux presents one register/subscribe surface over two independent
// sessions: a trading socket (trade_updates, account_updates) and a data
// socket (prefixed topics). Each session comes up lazily on the first
// subscribe that needs it.
type Mux struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	trading *Session
	data    *Session
	regs    []*Registration
}

// NewMux creates a multiplexer bound to the given credentials. No
// connection is opened until the first Subscribe.
func NewMux(cfg Config, logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	m := &Mux{cfg: cfg, logger: logger}
	m.trading, m.data = m.newSessions()
	return m
}

func (m *Mux) newSessions() (*Session, *Session) {
	base := SessionConfig{
		Credentials:      m.cfg.Credentials,
		MaxRetries:       m.cfg.MaxRetries,
		RetryWait:        m.cfg.RetryWait,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		DrainTimeout:     m.cfg.DrainTimeout,
		BufferSize:       m.cfg.BufferSize,
	}

	tcfg := base
	tcfg.Name = "trading"
	tcfg.BaseURL = m.cfg.BaseURL

	dcfg := base
	dcfg.Name = "data"
	dcfg.BaseURL = m.cfg.DataURL

	return NewSession(tcfg, m.logger), NewSession(dcfg, m.logger)
}

// Register binds a handler to a topic pattern on both sessions, so a
// handler registered before any connection exists still receives matching
// events after lazy connection. A nil handler is rejected.
func (m *Mux) Register(pattern string, fn HandlerFunc, symbols []string) (*Registration, error) {
	reg, err := newRegistration(pattern, fn, symbols)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.regs = append(m.regs, reg)
	trading, data := m.trading, m.data
	m.mu.Unlock()

	trading.addRegistration(reg)
	data.addRegistration(reg)
	return reg, nil
}

// Deregister removes every registration with the given pattern from the mux
// and both sessions.
func (m *Mux) Deregister(pattern string) {
	m.mu.Lock()
	kept := m.regs[:0]
	for _, r := range m.regs {
		if r.Pattern() != pattern {
			kept = append(kept, r)
		}
	}
	m.regs = kept
	trading, data := m.trading, m.data
	m.mu.Unlock()

	trading.Deregister(pattern)
	data.Deregister(pattern)
}

// Subscribe classifies each topic and forwards it to the session that
// carries it, lazily connecting sessions on first use. Any unclassifiable
// topic fails the whole call before a frame is sent on either session.
func (m *Mux) Subscribe(ctx context.Context, topics []string) error {
	var trading, data []string
	for _, t := range topics {
		switch Classify(t) {
		case TopicTrading:
			trading = append(trading, t)
		case TopicData:
			data = append(data, t)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidTopic, t)
		}
	}

	m.mu.Lock()
	ts, ds := m.trading, m.data
	m.mu.Unlock()

	if len(trading) > 0 {
		if err := ts.Subscribe(ctx, trading); err != nil {
			return err
		}
	}
	if len(data) > 0 {
		if err := ds.Subscribe(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe forwards data topics to the data session. Trading-topic
// unsubscription is not supported by this surface; trading topics in the
// input are ignored.
func (m *Mux) Unsubscribe(ctx context.Context, topics []string) error {
	var data []string
	for _, t := range topics {
		if Classify(t) == TopicData {
			data = append(data, t)
		}
	}
	if len(data) == 0 {
		return nil
	}

	m.mu.Lock()
	ds := m.data
	m.mu.Unlock()

	return ds.Unsubscribe(ctx, data)
}

// Consume blocks until both sessions terminate. A fatal failure on either
// session cancels the wait on the other and is returned.
func (m *Mux) Consume(ctx context.Context) error {
	m.mu.Lock()
	trading, data := m.trading, m.data
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return trading.Wait(gctx) })
	g.Go(func() error { return data.Wait(gctx) })
	return g.Wait()
}

// Close shuts down both sessions. Safe to call twice.
func (m *Mux) Close() error {
	m.mu.Lock()
	trading, data := m.trading, m.data
	m.mu.Unlock()

	trading.Close()
	data.Close()
	return nil
}

// Run subscribes to the initial topics and drives Consume until the context
// is cancelled. Any other failure closes both sessions, rebuilds fresh
// credential-bound ones, and restarts: an unbounded outer supervisory tier
// above the per-session bounded reconnect. Invalid topics in the initial
// set are deterministic caller errors and are returned immediately.
func (m *Mux) Run(ctx context.Context, initial []string) error {
	for {
		if err := m.Subscribe(ctx, initial); err != nil {
			if errors.Is(err, ErrInvalidTopic) {
				return err
			}
			m.logger.Error("initial subscribe failed", "error", err)
		} else if !m.sessionsStarted() {
			// Nothing to consume and nothing will start a session; hold
			// until the caller stops us.
			<-ctx.Done()
			m.Close()
			return ctx.Err()
		} else {
			err := m.Consume(ctx)
			if ctx.Err() != nil {
				m.logger.Info("exiting on interrupt")
				m.Close()
				return ctx.Err()
			}
			if err != nil {
				m.logger.Error("error while consuming stream", "error", err)
			}
		}

		m.logger.Info("rebuilding stream sessions")
		m.rebuild()

		select {
		case <-ctx.Done():
			m.Close()
			return ctx.Err()
		case <-time.After(m.cfg.RebuildWait):
		}
	}
}

func (m *Mux) sessionsStarted() bool {
	m.mu.Lock()
	trading, data := m.trading, m.data
	m.mu.Unlock()
	return trading.Started() || data.Started()
}

// rebuild closes both sessions and replaces them with fresh instances,
// re-propagating every registration. Subscriptions are re-established by
// the caller's next Subscribe, not replayed retroactively.
func (m *Mux) rebuild() {
	m.mu.Lock()
	old := []*Session{m.trading, m.data}
	m.trading, m.data = m.newSessions()
	for _, reg := range m.regs {
		m.trading.addRegistration(reg)
		m.data.addRegistration(reg)
	}
	m.mu.Unlock()

	for _, s := range old {
		s.Close()
	}
}
