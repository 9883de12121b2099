package stream

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TopicClass classifies a topic name by the socket that carries it.
type TopicClass int

const (
	TopicInvalid TopicClass = iota
	TopicTrading
	TopicData
)

func (c TopicClass) String() string {
	switch c {
	case TopicTrading:
		return "trading"
	case TopicData:
		return "data"
	}
	return "invalid"
}

// Fixed trading topics carried by the trading socket.
var tradingTopics = map[string]struct{}{
	"trade_updates":   {},
	"account_updates": {},
}

// Prefixes carried by the data socket. The provider-qualified form
// ("alpacadatav1/Q.AAPL") is accepted alongside the bare prefixes.
var dataPrefixes = []string{"Q.", "T.", "AM.", "A.", "alpacadatav1/"}

// Classify maps a topic name to exactly one of trading, data, or invalid.
// It is total and deterministic.
func Classify(topic string) TopicClass {
	if _, ok := tradingTopics[topic]; ok {
		return TopicTrading
	}
	for _, p := range dataPrefixes {
		if strings.HasPrefix(topic, p) {
			return TopicData
		}
	}
	return TopicInvalid
}

// HandlerFunc consumes one dispatched event. Invocations for one
// registration run sequentially in frame arrival order on a dedicated
// goroutine; the context is cancelled when the owning session closes.
type HandlerFunc func(ctx context.Context, topic string, ev any) error

// Registration binds a topic pattern to a handler, optionally restricted to
// a symbol set. Obtain one from Register; the same registration is shared by
// every session it was propagated to.
type Registration struct {
	ID      uuid.UUID
	pattern *regexp.Regexp
	fn      HandlerFunc
	symbols map[string]struct{} // nil means no symbol filter
}

// Pattern returns the registered pattern source text.
func (r *Registration) Pattern() string {
	return r.pattern.String()
}

// matches reports whether the registration should receive the given topic.
func (r *Registration) matches(topic string) bool {
	if !r.pattern.MatchString(topic) {
		return false
	}
	if r.symbols == nil {
		return true
	}
	sym := topicSymbol(topic)
	if sym == "" {
		return true
	}
	_, ok := r.symbols[sym]
	return ok
}

// topicSymbol extracts the symbol from a prefixed data topic ("Q.AAPL" →
// "AAPL"). Fixed-name topics have no symbol.
func topicSymbol(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		topic = topic[i+1:]
	}
	if i := strings.Index(topic, "."); i >= 0 {
		return topic[i+1:]
	}
	return ""
}

// newRegistration compiles the pattern and builds the symbol filter.
func newRegistration(pattern string, fn HandlerFunc, symbols []string) (*Registration, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	reg := &Registration{
		ID:      uuid.New(),
		pattern: re,
		fn:      fn,
	}
	if len(symbols) > 0 {
		reg.symbols = make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			reg.symbols[s] = struct{}{}
		}
	}
	return reg, nil
}
