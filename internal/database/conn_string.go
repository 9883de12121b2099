package database

import (
	"fmt"
	"net/url"

	"github.com/quantfeed/alpaca-stream/internal/config"
)

// BuildConnString builds the connection URL for the TimescaleDB tick
// store from the gateway's database config.
func BuildConnString(cfg config.DBConfig) string {
	// Passwords can carry URL metacharacters (@, /, spaces).
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
