package stream

import (
	"encoding/json"
	"testing"

	"github.com/quantfeed/alpaca-stream/internal/model"
)

func TestCast_Quote(t *testing.T) {
	data := json.RawMessage(`{"S":"AAPL","bx":11,"bp":150.25,"bs":2,"ax":12,"ap":150.30,"as":3,"t":1700000000000}`)

	ev := Cast("Q.AAPL", data)
	q, ok := ev.(model.Quote)
	if !ok {
		t.Fatalf("expected model.Quote, got %T", ev)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", q.Symbol)
	}
	if q.BidPrice != 150.25 || q.AskPrice != 150.30 {
		t.Errorf("prices = %v/%v, want 150.25/150.30", q.BidPrice, q.AskPrice)
	}
}

func TestCast_QuoteProviderQualified(t *testing.T) {
	data := json.RawMessage(`{"S":"AAPL","bp":1.0,"ap":1.1}`)

	ev := Cast("alpacadatav1/Q.AAPL", data)
	if _, ok := ev.(model.Quote); !ok {
		t.Fatalf("expected model.Quote, got %T", ev)
	}
}

func TestCast_Trade(t *testing.T) {
	data := json.RawMessage(`{"S":"TSLA","i":42,"x":4,"p":201.5,"s":100,"t":1700000000000}`)

	ev := Cast("T.TSLA", data)
	tr, ok := ev.(model.Trade)
	if !ok {
		t.Fatalf("expected model.Trade, got %T", ev)
	}
	if tr.Symbol != "TSLA" || tr.Price != 201.5 || tr.Size != 100 {
		t.Errorf("unexpected trade: %+v", tr)
	}
}

func TestCast_Bar(t *testing.T) {
	data := json.RawMessage(`{"S":"SPY","o":450.0,"h":451.2,"l":449.8,"c":450.9,"v":120000,"s":1700000000000,"e":1700000060000}`)

	for _, topic := range []string{"AM.SPY", "A.SPY"} {
		ev := Cast(topic, data)
		b, ok := ev.(model.Bar)
		if !ok {
			t.Fatalf("Cast(%q): expected model.Bar, got %T", topic, ev)
		}
		if b.Symbol != "SPY" || b.Close != 450.9 {
			t.Errorf("Cast(%q): unexpected bar: %+v", topic, b)
		}
	}
}

func TestCast_TradeUpdate(t *testing.T) {
	data := json.RawMessage(`{"event":"fill","price":150.0,"order":{"id":"abc","symbol":"AAPL"}}`)

	ev := Cast("trade_updates", data)
	tu, ok := ev.(model.TradeUpdate)
	if !ok {
		t.Fatalf("expected model.TradeUpdate, got %T", ev)
	}
	if tu.Event != model.OrderEventFill {
		t.Errorf("Event = %q, want fill", tu.Event)
	}
	if tu.Order.Symbol != "AAPL" {
		t.Errorf("Order.Symbol = %q, want AAPL", tu.Order.Symbol)
	}
}

func TestCast_Account(t *testing.T) {
	data := json.RawMessage(`{"id":"acct-1","status":"ACTIVE","cash":"1000.00"}`)

	ev := Cast("account_updates", data)
	a, ok := ev.(model.Account)
	if !ok {
		t.Fatalf("expected model.Account, got %T", ev)
	}
	if a.Status != "ACTIVE" {
		t.Errorf("Status = %q, want ACTIVE", a.Status)
	}
}

func TestCast_UnknownTopicPassthrough(t *testing.T) {
	data := json.RawMessage(`{"status":"authorized"}`)

	for _, topic := range []string{"authorized", "listening", "something_else"} {
		ev := Cast(topic, data)
		raw, ok := ev.(json.RawMessage)
		if !ok {
			t.Fatalf("Cast(%q): expected raw passthrough, got %T", topic, ev)
		}
		if string(raw) != string(data) {
			t.Errorf("Cast(%q): payload altered: %s", topic, raw)
		}
	}
}

func TestCast_UndecodablePassthrough(t *testing.T) {
	// A known family with a payload that does not fit its shape still
	// reaches handlers, as raw JSON.
	data := json.RawMessage(`["not","an","object"]`)

	ev := Cast("Q.AAPL", data)
	raw, ok := ev.(json.RawMessage)
	if !ok {
		t.Fatalf("expected raw passthrough, got %T", ev)
	}
	if string(raw) != string(data) {
		t.Errorf("payload altered: %s", raw)
	}
}
