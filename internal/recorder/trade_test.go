package recorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/quantfeed/alpaca-stream/internal/model"
)

func testRecorderConfig() Config {
	// A batch size no test reaches, so nothing flushes to the nil pool.
	return Config{
		BatchSize:     10000,
		FlushInterval: time.Hour,
	}
}

func TestTradeRecorder_HandlerBuffersTrades(t *testing.T) {
	r := NewTradeRecorder(testRecorderConfig(), nil, nil)
	handler := r.Handler()

	trade := model.Trade{
		TradeID:   42,
		Symbol:    "AAPL",
		Price:     150.25,
		Size:      100,
		Timestamp: 1700000000000,
	}
	if err := handler(context.Background(), "T.AAPL", trade); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	if len(r.batch) != 1 {
		t.Fatalf("batch size = %d, want 1", len(r.batch))
	}

	row := r.batch[0]
	if row.TradeID != 42 || row.Symbol != "AAPL" || row.Price != 150.25 || row.Size != 100 {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.ExchangeTs != 1700000000000 {
		t.Errorf("ExchangeTs = %d, want 1700000000000", row.ExchangeTs)
	}
	if row.RecordedAt == 0 {
		t.Error("RecordedAt should be set")
	}
}

func TestTradeRecorder_HandlerDropsOtherTypes(t *testing.T) {
	r := NewTradeRecorder(testRecorderConfig(), nil, nil)
	handler := r.Handler()

	// A raw payload that never decoded to a Trade must not enter the batch.
	raw := json.RawMessage(`{"S":"AAPL"}`)
	if err := handler(context.Background(), "T.AAPL", raw); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if err := handler(context.Background(), "T.AAPL", model.Quote{Symbol: "AAPL"}); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	stats := r.Stats()
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	if len(r.batch) != 0 {
		t.Errorf("batch size = %d, want 0", len(r.batch))
	}
}

func TestTradeRecorder_FlushEmptyBatchIsNoop(t *testing.T) {
	r := NewTradeRecorder(testRecorderConfig(), nil, nil)

	// With an empty batch, flush returns before touching the pool.
	r.flush(context.Background())

	stats := r.Stats()
	if stats.Flushes != 0 || stats.Errors != 0 {
		t.Errorf("unexpected metrics after empty flush: %+v", stats)
	}
}

func TestQuoteRecorder_HandlerBuffersQuotes(t *testing.T) {
	r := NewQuoteRecorder(testRecorderConfig(), nil, nil)
	handler := r.Handler()

	quote := model.Quote{
		Symbol:    "MSFT",
		BidPrice:  300.10,
		BidSize:   2,
		AskPrice:  300.15,
		AskSize:   3,
		Timestamp: 1700000000000,
	}
	if err := handler(context.Background(), "Q.MSFT", quote); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	if len(r.batch) != 1 {
		t.Fatalf("batch size = %d, want 1", len(r.batch))
	}

	row := r.batch[0]
	if row.Symbol != "MSFT" || row.BidPrice != 300.10 || row.AskPrice != 300.15 {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestQuoteRecorder_HandlerDropsOtherTypes(t *testing.T) {
	r := NewQuoteRecorder(testRecorderConfig(), nil, nil)
	handler := r.Handler()

	if err := handler(context.Background(), "Q.AAPL", model.Trade{Symbol: "AAPL"}); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if stats := r.Stats(); stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
}
