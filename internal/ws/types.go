package ws

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
	ErrStale        = errors.New("connection stale (no ping)")
	ErrClosed       = errors.New("already closed")
)

// Message wraps a raw inbound frame with its receive timestamp.
type Message struct {
	Data       []byte    // Raw frame bytes from the socket
	ReceivedAt time.Time // Local timestamp when the read returned
}

// Config configures a single websocket connection.
type Config struct {
	URL              string        // Full websocket endpoint (e.g. wss://api.alpaca.markets/stream)
	HandshakeTimeout time.Duration // Dial timeout
	PingTimeout      time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Inbound message channel buffer
}

// DefaultConfig returns sensible defaults for a venue stream connection.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       4096,
	}
}
