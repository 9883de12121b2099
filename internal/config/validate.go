package config

import (
	"errors"
	"fmt"
)

// Validate checks that required fields are set and values are sane.
func (c *GatewayConfig) Validate() error {
	if c.Credentials.OAuth == "" {
		if c.Credentials.KeyID == "" {
			return errors.New("credentials.key_id is required (or credentials.oauth)")
		}
		if c.Credentials.SecretKey == "" {
			return errors.New("credentials.secret_key is required (or credentials.oauth)")
		}
	}

	if c.Stream.MaxRetries < 0 {
		return errors.New("stream.max_retries must be >= 0")
	}
	if c.Stream.RetryWait < 0 {
		return errors.New("stream.retry_wait must be >= 0")
	}

	if c.Recorder.Enabled {
		if err := c.Recorder.Database.validate("recorder.database"); err != nil {
			return err
		}
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
	}

	if c.Relay.Enabled && c.Relay.URL == "" {
		return errors.New("relay.url is required when relay is enabled")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
