// Package ws provides the single-connection websocket primitive used by the
// stream package. A Conn owns one physical socket: it pumps inbound frames
// onto a buffered channel in arrival order, reports transport failures on a
// separate error channel, and keeps the connection alive with ping/pong
// heartbeats. Authentication is not handled here; the venue authenticates
// in-band, which is the session layer's job.
package ws
