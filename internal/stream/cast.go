package stream

import (
	"encoding/json"
	"strings"

	"github.com/quantfeed/alpaca-stream/internal/model"
)

// topicFamily is the closed set of payload shapes the caster knows about.
type topicFamily int

const (
	familyRaw topicFamily = iota
	familyAccount
	familyTradeUpdate
	familyQuote
	familyTradeTick
	familyBar
)

// familyOf maps a topic name to its payload family. Unrecognized topics
// (including control topics like "authorized" and "listening") fall into
// familyRaw.
func familyOf(topic string) topicFamily {
	switch topic {
	case "account_updates":
		return familyAccount
	case "trade_updates":
		return familyTradeUpdate
	}

	// Strip the provider qualifier before inspecting the prefix.
	if i := strings.Index(topic, "/"); i >= 0 {
		topic = topic[i+1:]
	}
	i := strings.Index(topic, ".")
	if i < 0 {
		return familyRaw
	}
	switch topic[:i] {
	case "Q":
		return familyQuote
	case "T":
		return familyTradeTick
	case "AM", "A":
		return familyBar
	}
	return familyRaw
}

// Cast maps a raw decoded payload to its typed event by topic family.
// Unknown topics and undecodable payloads pass the raw JSON through
// unchanged; casting is never the reason a dispatch is dropped.
func Cast(topic string, data json.RawMessage) any {
	switch familyOf(topic) {
	case familyAccount:
		var ev model.Account
		if err := json.Unmarshal(data, &ev); err != nil {
			return data
		}
		return ev
	case familyTradeUpdate:
		var ev model.TradeUpdate
		if err := json.Unmarshal(data, &ev); err != nil {
			return data
		}
		return ev
	case familyQuote:
		var ev model.Quote
		if err := json.Unmarshal(data, &ev); err != nil {
			return data
		}
		return ev
	case familyTradeTick:
		var ev model.Trade
		if err := json.Unmarshal(data, &ev); err != nil {
			return data
		}
		return ev
	case familyBar:
		var ev model.Bar
		if err := json.Unmarshal(data, &ev); err != nil {
			return data
		}
		return ev
	}
	return data
}
