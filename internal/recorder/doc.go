// Package recorder persists market data ticks to TimescaleDB. Each
// recorder registers a handler on the stream, accumulates typed events into
// batches, and flushes with pgx batch inserts on size or interval. Inserts
// use ON CONFLICT DO NOTHING so replays after reconnects stay idempotent.
package recorder
