// Package api is the synchronous REST core: authenticated request
// execution with retry on retryable status codes, plus typed accessors for
// accounts, positions, and orders. The streaming core treats it as a black
// box for anything that is not a stream frame.
package api
