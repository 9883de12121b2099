package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantfeed/alpaca-stream/internal/ws"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	}
	return "disconnected"
}

// Credentials authenticate a session. Exactly one of the key/secret pair or
// the OAuth token is sent during the handshake.
type Credentials struct {
	KeyID     string
	SecretKey string
	OAuth     string
}

// SessionConfig configures a single stream session.
type SessionConfig struct {
	Name             string // log tag, e.g. "trading" or "data"
	BaseURL          string // http(s) base URL; the ws endpoint derives from it
	Credentials      Credentials
	MaxRetries       int           // reconnect attempts per disconnect
	RetryWait        time.Duration // base wait; attempt n waits RetryWait*n
	HandshakeTimeout time.Duration
	DrainTimeout     time.Duration // grace for in-flight handlers on Close
	BufferSize       int           // inbound frame channel buffer
}

func (c *SessionConfig) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryWait == 0 {
		c.RetryWait = 3 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = time.Second
	}
	if c.BufferSize == 0 {
		c.BufferSize = 4096
	}
}

// Wire protocol.
const (
	actionAuthenticate = "authenticate"
	actionListen       = "listen"
	actionUnlisten     = "unlisten"
)

type controlFrame struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type authData struct {
	KeyID      string `json:"key_id,omitempty"`
	SecretKey  string `json:"secret_key,omitempty"`
	OAuthToken string `json:"oauth_token,omitempty"`
}

type streamsData struct {
	Streams []string `json:"streams"`
}

// envelope is the inbound frame shape. Frames without a stream field carry
// no dispatchable content.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// authReply is the handshake response. Any shape not matching an explicit
// rejection is treated as implicit success; the venue omits the status field
// on some happy paths.
type authReply struct {
	Data struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"data"`
}

// Session owns one physical connection to a stream endpoint: the
// authenticate handshake, the FIFO receive loop, the subscription set, and
// bounded-retry reconnection with subscription replay.
type Session struct {
	cfg      SessionConfig
	logger   *slog.Logger
	endpoint string

	state atomic.Int32

	mu      sync.Mutex
	conn    ws.Conn
	started bool
	closed  bool
	streams map[string]struct{}
	regs    []*Registration
	queues  map[*Registration]chan dispatchJob
	retries int

	handlerCtx    context.Context
	handlerCancel context.CancelFunc
	handlerWG     sync.WaitGroup

	quit     chan struct{}
	term     chan struct{}
	termOnce sync.Once
	termErr  error
}

// NewSession creates a disconnected session for the given endpoint.
func NewSession(cfg SessionConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:           cfg,
		logger:        logger.With("session", cfg.Name),
		endpoint:      streamEndpoint(cfg.BaseURL),
		streams:       make(map[string]struct{}),
		queues:        make(map[*Registration]chan dispatchJob),
		handlerCtx:    ctx,
		handlerCancel: cancel,
		quit:          make(chan struct{}),
		term:          make(chan struct{}),
	}
}

// streamEndpoint derives the websocket endpoint from an http(s) base URL by
// substituting the leading "http" with "ws".
func streamEndpoint(base string) string {
	if strings.HasPrefix(base, "http") {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	return base + "/stream"
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Endpoint returns the derived websocket endpoint.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Register binds a handler to a topic pattern, optionally restricted to the
// given symbols. Handlers registered before Connect still receive matching
// events once the session is up.
func (s *Session) Register(pattern string, fn HandlerFunc, symbols []string) (*Registration, error) {
	reg, err := newRegistration(pattern, fn, symbols)
	if err != nil {
		return nil, err
	}
	s.addRegistration(reg)
	return reg, nil
}

func (s *Session) addRegistration(reg *Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = append(s.regs, reg)
}

// Deregister removes every registration with the given pattern source.
func (s *Session) Deregister(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.regs[:0]
	for _, r := range s.regs {
		if r.Pattern() != pattern {
			kept = append(kept, r)
		}
	}
	s.regs = kept
}

// Connect opens the transport, authenticates, and starts the receive loop.
// A credential rejection returns *AuthError and leaves the session down.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.conn != nil && s.conn.IsConnected() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	// Close may have landed while the handshake was in flight.
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return ErrSessionClosed
	}
	s.conn = conn
	s.started = true
	s.mu.Unlock()

	go s.receiveLoop(conn)
	return nil
}

// dial opens a fresh connection and performs the authenticate handshake.
func (s *Session) dial(ctx context.Context) (ws.Conn, error) {
	s.state.Store(int32(StateConnecting))

	wcfg := ws.DefaultConfig(s.endpoint)
	wcfg.HandshakeTimeout = s.cfg.HandshakeTimeout
	wcfg.BufferSize = s.cfg.BufferSize
	conn := ws.Dial(wcfg, s.logger)
	if err := conn.Connect(ctx); err != nil {
		s.state.Store(int32(StateDisconnected))
		return nil, err
	}

	s.state.Store(int32(StateAuthenticating))

	auth := authData{KeyID: s.cfg.Credentials.KeyID, SecretKey: s.cfg.Credentials.SecretKey}
	if s.cfg.Credentials.OAuth != "" {
		auth = authData{OAuthToken: s.cfg.Credentials.OAuth}
	}
	frame, err := json.Marshal(controlFrame{Action: actionAuthenticate, Data: auth})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Send(frame); err != nil {
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, err
	}

	// Exactly one handshake reply.
	var msg ws.Message
	select {
	case msg = <-conn.Messages():
	case err := <-conn.Errors():
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, err
	case <-time.After(s.cfg.HandshakeTimeout):
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, fmt.Errorf("no handshake reply within %s", s.cfg.HandshakeTimeout)
	case <-ctx.Done():
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, ctx.Err()
	case <-s.quit:
		conn.Close()
		return nil, ErrSessionClosed
	}

	var reply authReply
	// A reply that does not decode is an implicit success: the venue omits
	// the status field on some happy paths.
	_ = json.Unmarshal(msg.Data, &reply)
	switch {
	case reply.Data.Status != "" && reply.Data.Status != "authorized":
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, &AuthError{Endpoint: s.endpoint, Status: reply.Data.Status}
	case reply.Data.Status == "" && reply.Data.Error != "":
		conn.Close()
		s.state.Store(int32(StateDisconnected))
		return nil, &AuthError{Endpoint: s.endpoint, Reason: reply.Data.Error}
	}

	s.mu.Lock()
	s.retries = 0
	s.mu.Unlock()
	s.state.Store(int32(StateConnected))
	s.logger.Info("connected", "endpoint", s.endpoint)

	// The handshake reply is dispatchable on the synthetic authorized topic.
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err == nil {
		s.dispatch("authorized", env.Data)
	}

	return conn, nil
}

// Subscribe sends a listen frame for the given topics, connecting first if
// the session has never been up. Idempotent; an empty input is a no-op.
func (s *Session) Subscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	s.mu.Lock()
	closed, started := s.closed, s.started
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	if !started {
		if err := s.Connect(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	for _, t := range topics {
		s.streams[t] = struct{}{}
	}
	conn := s.conn
	s.mu.Unlock()

	return s.sendStreams(conn, actionListen, topics)
}

// Unsubscribe sends an unlisten frame for the given topics. Topics not in
// the subscription set are skipped; it never triggers a connection attempt.
func (s *Session) Unsubscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed || !s.started || s.conn == nil {
		s.mu.Unlock()
		return nil
	}
	var active []string
	for _, t := range topics {
		if _, ok := s.streams[t]; ok {
			active = append(active, t)
			delete(s.streams, t)
		}
	}
	conn := s.conn
	s.mu.Unlock()

	if len(active) == 0 {
		return nil
	}
	return s.sendStreams(conn, actionUnlisten, active)
}

// Streams returns a snapshot of the current subscription set.
func (s *Session) Streams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.streams))
	for t := range s.streams {
		out = append(out, t)
	}
	return out
}

// Started reports whether the session has ever connected.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Wait blocks until the session terminates: nil after an explicit Close,
// ErrMaxRetries or *AuthError after unrecoverable reconnect failure. A
// session that never connected returns immediately.
func (s *Session) Wait(ctx context.Context) error {
	if !s.Started() {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.term:
		return s.termErr
	}
}

// Close cancels the receive loop and handler context, drains in-flight
// handlers up to the drain timeout, and closes the transport. Safe to call
// when already closed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.state.Store(int32(StateClosing))
	close(s.quit)
	s.handlerCancel()
	if conn != nil {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.handlerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.DrainTimeout):
		s.logger.Warn("handler drain timed out", "timeout", s.cfg.DrainTimeout)
	}

	s.finish(nil)
	return nil
}

func (s *Session) finish(err error) {
	s.termOnce.Do(func() {
		s.termErr = err
		s.state.Store(int32(StateDisconnected))
		close(s.term)
	})
}

// receiveLoop pumps frames off one connection until it fails or the session
// closes. Frame intake is strictly FIFO; handler dispatch is not awaited.
func (s *Session) receiveLoop(conn ws.Conn) {
	for {
		select {
		case <-s.quit:
			s.finish(nil)
			return

		case msg := <-conn.Messages():
			s.handleFrame(msg)

		case err := <-conn.Errors():
			s.logger.Warn("transport error", "error", err)
			conn.Close()
			s.state.Store(int32(StateDisconnected))

			resumed, rerr := s.reconnect()
			if rerr != nil {
				s.finish(rerr)
				return
			}
			if !resumed {
				s.finish(nil)
			}
			return
		}
	}
}

// reconnect attempts to bring the session back up, waiting RetryWait*attempt
// before each try. On success it replays the full subscription set and
// starts a fresh receive loop. Credential rejections are not retried.
func (s *Session) reconnect() (resumed bool, err error) {
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		wait := time.Duration(attempt) * s.cfg.RetryWait
		s.logger.Info("reconnecting", "attempt", attempt, "wait", wait)

		select {
		case <-s.quit:
			return false, nil
		case <-time.After(wait):
		}

		s.mu.Lock()
		s.retries = attempt
		s.mu.Unlock()

		conn, derr := s.dial(context.Background())
		if derr != nil {
			var aerr *AuthError
			if errors.As(derr, &aerr) {
				return false, derr
			}
			if errors.Is(derr, ErrSessionClosed) {
				return false, nil
			}
			s.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", derr)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return false, nil
		}
		s.conn = conn
		streams := make([]string, 0, len(s.streams))
		for t := range s.streams {
			streams = append(streams, t)
		}
		s.mu.Unlock()

		if len(streams) > 0 {
			if serr := s.sendStreams(conn, actionListen, streams); serr != nil {
				s.logger.Warn("subscription replay failed", "error", serr)
				conn.Close()
				continue
			}
		}

		go s.receiveLoop(conn)
		return true, nil
	}
	return false, ErrMaxRetries
}

// handleFrame decodes one inbound frame and fans it out. Frames without a
// topic are dropped silently.
func (s *Session) handleFrame(msg ws.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		s.logger.Debug("undecodable frame", "error", err)
		return
	}
	if env.Stream == "" {
		return
	}
	s.dispatch(env.Stream, env.Data)
}

// dispatchJob carries one matched frame to a registration's worker.
type dispatchJob struct {
	topic string
	ev    any
}

// dispatch fans one frame out to every matching registration. The frame's
// payload is cast once; each registration gets the job on its own dispatch
// queue, so invocations of one handler begin in frame arrival order while
// independent handlers stay concurrent.
func (s *Session) dispatch(topic string, data json.RawMessage) {
	s.mu.Lock()
	var matched []*Registration
	for _, r := range s.regs {
		if r.matches(topic) {
			matched = append(matched, r)
		}
	}
	s.mu.Unlock()

	if len(matched) == 0 {
		return
	}

	ev := Cast(topic, data)
	for _, reg := range matched {
		s.enqueue(reg, dispatchJob{topic: topic, ev: ev})
	}
}

// enqueue hands the job to the registration's dispatch worker, starting the
// worker on first use. Frames arriving after Close are dropped.
func (s *Session) enqueue(reg *Registration, job dispatchJob) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	q, ok := s.queues[reg]
	if !ok {
		q = make(chan dispatchJob, s.cfg.BufferSize)
		s.queues[reg] = q
		s.handlerWG.Add(1)
		go s.dispatchWorker(reg, q)
	}
	s.mu.Unlock()

	select {
	case q <- job:
	case <-s.handlerCtx.Done():
	}
}

// dispatchWorker drains one registration's queue, invoking the handler
// sequentially. A slow handler delays only its own registration; the
// receive loop and other registrations keep going.
func (s *Session) dispatchWorker(reg *Registration, q chan dispatchJob) {
	defer s.handlerWG.Done()
	for {
		select {
		case <-s.handlerCtx.Done():
			return
		case job := <-q:
			if err := reg.fn(s.handlerCtx, job.topic, job.ev); err != nil {
				s.logger.Warn("handler error", "topic", job.topic, "error", err)
			}
		}
	}
}

func (s *Session) sendStreams(conn ws.Conn, action string, streams []string) error {
	frame, err := json.Marshal(controlFrame{Action: action, Data: streamsData{Streams: streams}})
	if err != nil {
		return err
	}
	return conn.Send(frame)
}
