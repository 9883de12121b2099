package config

import (
	"os"
	"strconv"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL       = "https://api.alpaca.markets"
	DefaultDataURL       = "https://data.alpaca.markets"
	DefaultAPITimeout    = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryWait     = 3 * time.Second
	DefaultBufferSize    = 4096
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultBatchSize     = 1000
	DefaultFlushInterval = 1 * time.Second
	DefaultSubjectPrefix = "alpaca"
	DefaultNATSURL       = "nats://127.0.0.1:4222"
)

func (c *GatewayConfig) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.DataURL == "" {
		c.API.DataURL = DefaultDataURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	if c.Stream.MaxRetries == 0 {
		c.Stream.MaxRetries = DefaultMaxRetries
	}
	if c.Stream.RetryWait == 0 {
		c.Stream.RetryWait = DefaultRetryWait
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultBufferSize
	}

	if c.Recorder.Enabled {
		applyDBDefaults(&c.Recorder.Database)
		if c.Recorder.BatchSize == 0 {
			c.Recorder.BatchSize = DefaultBatchSize
		}
		if c.Recorder.FlushInterval == 0 {
			c.Recorder.FlushInterval = DefaultFlushInterval
		}
	}

	if c.Relay.Enabled {
		if c.Relay.URL == "" {
			c.Relay.URL = DefaultNATSURL
		}
		if c.Relay.SubjectPrefix == "" {
			c.Relay.SubjectPrefix = DefaultSubjectPrefix
		}
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

// applyEnv overlays the APCA_* environment variables onto the config.
func (c *GatewayConfig) applyEnv() {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		c.Credentials.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		c.Credentials.SecretKey = v
	}
	if v := os.Getenv("APCA_API_OAUTH"); v != "" {
		c.Credentials.OAuth = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		c.API.DataURL = v
	}
	if v := os.Getenv("APCA_RETRY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Stream.MaxRetries = n
		}
	}
	if v := os.Getenv("APCA_RETRY_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Stream.RetryWait = time.Duration(n) * time.Second
		}
	}
}
