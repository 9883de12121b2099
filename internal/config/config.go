package config

import "time"

// GatewayConfig is the root configuration for the stream gateway.
type GatewayConfig struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	API         APIConfig         `yaml:"api"`
	Stream      StreamConfig      `yaml:"stream"`
	Recorder    RecorderConfig    `yaml:"recorder"`
	Relay       RelayConfig       `yaml:"relay"`
}

// CredentialsConfig holds the venue credentials. Exactly one of the
// key/secret pair or the OAuth token is used per handshake.
type CredentialsConfig struct {
	KeyID     string `yaml:"key_id"`
	SecretKey string `yaml:"secret_key"`
	OAuth     string `yaml:"oauth"`
}

// APIConfig holds the REST and stream base URLs.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"` // trading API
	DataURL string        `yaml:"data_url"` // market data API
	Timeout time.Duration `yaml:"timeout"`  // REST request timeout
}

// StreamConfig tunes the streaming core.
type StreamConfig struct {
	MaxRetries int           `yaml:"max_retries"` // reconnect budget per disconnect
	RetryWait  time.Duration `yaml:"retry_wait"`  // linear backoff base
	BufferSize int           `yaml:"buffer_size"` // inbound frame buffer per socket
	Topics     []string      `yaml:"topics"`      // initial subscription set
}

// RecorderConfig configures optional tick persistence.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RelayConfig configures optional NATS republishing.
type RelayConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DBConfig holds PostgreSQL/TimescaleDB connection parameters.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
