package stream

import (
	"context"
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		topic string
		want  TopicClass
	}{
		{"trade_updates", TopicTrading},
		{"account_updates", TopicTrading},
		{"Q.AAPL", TopicData},
		{"T.MSFT", TopicData},
		{"AM.TSLA", TopicData},
		{"A.SPY", TopicData},
		{"alpacadatav1/Q.AAPL", TopicData},
		{"Z.AAPL", TopicInvalid},
		{"trade_update", TopicInvalid},
		{"", TopicInvalid},
		{"AAPL", TopicInvalid},
	}

	for _, tt := range tests {
		if got := Classify(tt.topic); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	topics := []string{"trade_updates", "Q.AAPL", "Z.AAPL", ""}
	for _, topic := range topics {
		first := Classify(topic)
		for i := 0; i < 10; i++ {
			if got := Classify(topic); got != first {
				t.Fatalf("Classify(%q) changed from %v to %v", topic, first, got)
			}
		}
	}
}

func TestTopicSymbol(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"Q.AAPL", "AAPL"},
		{"AM.TSLA", "TSLA"},
		{"alpacadatav1/Q.MSFT", "MSFT"},
		{"trade_updates", ""},
		{"authorized", ""},
	}

	for _, tt := range tests {
		if got := topicSymbol(tt.topic); got != tt.want {
			t.Errorf("topicSymbol(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestRegistration_NilHandler(t *testing.T) {
	_, err := newRegistration("^Q\\.", nil, nil)
	if !errors.Is(err, ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestRegistration_BadPattern(t *testing.T) {
	fn := func(ctx context.Context, topic string, ev any) error { return nil }
	_, err := newRegistration("[invalid", fn, nil)
	if err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestRegistration_Matches(t *testing.T) {
	fn := func(ctx context.Context, topic string, ev any) error { return nil }

	reg, err := newRegistration(`^Q\.`, fn, nil)
	if err != nil {
		t.Fatalf("newRegistration failed: %v", err)
	}
	if !reg.matches("Q.AAPL") {
		t.Error("expected Q.AAPL to match ^Q\\.")
	}
	if reg.matches("T.AAPL") {
		t.Error("did not expect T.AAPL to match ^Q\\.")
	}
}

func TestRegistration_SymbolFilter(t *testing.T) {
	fn := func(ctx context.Context, topic string, ev any) error { return nil }

	reg, err := newRegistration(`^Q\.`, fn, []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("newRegistration failed: %v", err)
	}

	if !reg.matches("Q.AAPL") {
		t.Error("expected Q.AAPL to pass the symbol filter")
	}
	if !reg.matches("Q.MSFT") {
		t.Error("expected Q.MSFT to pass the symbol filter")
	}
	if reg.matches("Q.TSLA") {
		t.Error("did not expect Q.TSLA to pass the symbol filter")
	}
}

func TestRegistration_SymbolFilterSkipsFixedTopics(t *testing.T) {
	fn := func(ctx context.Context, topic string, ev any) error { return nil }

	// Fixed-name topics carry no symbol; the filter must not block them.
	reg, err := newRegistration(`.*`, fn, []string{"AAPL"})
	if err != nil {
		t.Fatalf("newRegistration failed: %v", err)
	}
	if !reg.matches("trade_updates") {
		t.Error("expected trade_updates to match despite symbol filter")
	}
}

func TestRegistration_UniqueIDs(t *testing.T) {
	fn := func(ctx context.Context, topic string, ev any) error { return nil }

	a, _ := newRegistration(`^Q\.`, fn, nil)
	b, _ := newRegistration(`^Q\.`, fn, nil)
	if a.ID == b.ID {
		t.Error("expected distinct registration IDs")
	}
}
