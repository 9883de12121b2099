// Package stream implements the streaming gateway core: persistent
// authenticated websocket sessions to the venue's trading and market-data
// endpoints, bounded-retry reconnection with subscription replay, and a
// two-socket multiplexer that routes a single logical topic namespace to
// whichever socket carries it.
//
// A Session owns one physical connection: the in-band authenticate
// handshake, the FIFO receive loop, and the subscription set. The Mux
// type fans the topic namespace out across a trading session
// (trade_updates, account_updates) and a data session (Q.*, T.*, AM.*,
// A.*), bringing each up lazily on first subscribe. Handlers are matched
// by regular expression against the full topic name; each registration
// drains its own dispatch queue, so invocations of one handler begin in
// frame arrival order and a slow handler never blocks frame intake or
// other handlers.
package stream
