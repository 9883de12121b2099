// Package database builds pgx connection pools for the tick recorder,
// which persists trades and quotes to TimescaleDB.
package database
