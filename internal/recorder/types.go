package recorder

import "time"

// Config tunes batching for a recorder.
type Config struct {
	BatchSize     int           // flush when the batch reaches this size
	FlushInterval time.Duration // flush at least this often
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     1000,
		FlushInterval: time.Second,
	}
}

// Metrics counts recorder activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
	Dropped   int64 // events that were not the expected type
}
