// Package model defines the typed payloads carried by the venue's streaming
// and REST surfaces: account snapshots, order-lifecycle events, and the
// tick-level market data shapes (trades, quotes, minute bars).
//
// Conventions:
//   - Stream ticks use the venue's short JSON aliases ("S" symbol, "p" price, ...)
//   - Tick timestamps: int64 milliseconds since Unix epoch (Time() helpers convert)
//   - Money fields arrive as decimal strings and are kept as strings here
package model
