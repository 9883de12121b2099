package model

import "time"

// -----------------------------------------------------------------------------
// Market data ticks (data socket)
// -----------------------------------------------------------------------------

// Trade is an executed trade tick from a T.<symbol> topic.
type Trade struct {
	Symbol     string  `json:"S"`
	TradeID    int64   `json:"i"`
	ExchangeID int     `json:"x"`
	Price      float64 `json:"p"`
	Size       int     `json:"s"`
	Tape       int     `json:"z"`
	Conditions []int   `json:"c,omitempty"`
	Timestamp  int64   `json:"t"` // ms since epoch
}

// Time returns the exchange timestamp as a time.Time.
func (t Trade) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// Quote is an NBBO quote tick from a Q.<symbol> topic.
type Quote struct {
	Symbol      string  `json:"S"`
	BidExchange int     `json:"bx"`
	BidPrice    float64 `json:"bp"`
	BidSize     int     `json:"bs"`
	AskExchange int     `json:"ax"`
	AskPrice    float64 `json:"ap"`
	AskSize     int     `json:"as"`
	Timestamp   int64   `json:"t"` // ms since epoch
}

// Time returns the quote timestamp as a time.Time.
func (q Quote) Time() time.Time {
	return time.UnixMilli(q.Timestamp)
}

// Bar is an aggregate (minute or second) bar from an AM.<symbol> or
// A.<symbol> topic.
type Bar struct {
	Symbol     string  `json:"S"`
	Open       float64 `json:"o"`
	High       float64 `json:"h"`
	Low        float64 `json:"l"`
	Close      float64 `json:"c"`
	Volume     int64   `json:"v"`
	Start      int64   `json:"s"` // window start, ms since epoch
	End        int64   `json:"e"` // window end, ms since epoch
	AvgPrice   float64 `json:"a,omitempty"`
	TradeCount int64   `json:"n,omitempty"`
}

// StartTime returns the bar window start as a time.Time.
func (b Bar) StartTime() time.Time {
	return time.UnixMilli(b.Start)
}

// -----------------------------------------------------------------------------
// Order lifecycle events (trading socket)
// -----------------------------------------------------------------------------

// OrderEvent is the lifecycle stage carried by a trade_updates message.
type OrderEvent string

const (
	OrderEventNew             OrderEvent = "new"
	OrderEventPendingNew      OrderEvent = "pending_new"
	OrderEventPendingCancel   OrderEvent = "pending_cancel"
	OrderEventPendingReplace  OrderEvent = "pending_replace"
	OrderEventPartialFill     OrderEvent = "partial_fill"
	OrderEventFill            OrderEvent = "fill"
	OrderEventDoneForDay      OrderEvent = "done_for_day"
	OrderEventCanceled        OrderEvent = "canceled"
	OrderEventExpired         OrderEvent = "expired"
	OrderEventReplaced        OrderEvent = "replaced"
	OrderEventRejected        OrderEvent = "rejected"
	OrderEventStopped         OrderEvent = "stopped"
	OrderEventCalculated      OrderEvent = "calculated"
	OrderEventSuspended       OrderEvent = "suspended"
	OrderEventCancelRejected  OrderEvent = "order_cancel_rejected"
	OrderEventReplaceRejected OrderEvent = "order_replace_rejected"
)

// IsPending reports whether the event is a transitional pending state.
func (e OrderEvent) IsPending() bool {
	switch e {
	case OrderEventPendingNew, OrderEventPendingCancel, OrderEventPendingReplace:
		return true
	}
	return false
}

// IsFill reports whether the event represents an execution.
func (e OrderEvent) IsFill() bool {
	return e == OrderEventFill || e == OrderEventPartialFill
}

// IsRejected reports whether the event is a rejection of any kind.
func (e OrderEvent) IsRejected() bool {
	switch e {
	case OrderEventRejected, OrderEventCancelRejected, OrderEventReplaceRejected:
		return true
	}
	return false
}

// TradeUpdate is an order lifecycle event from the trade_updates topic.
type TradeUpdate struct {
	Event       OrderEvent `json:"event"`
	Price       float64    `json:"price,omitempty"`
	Timestamp   time.Time  `json:"timestamp,omitempty"`
	PositionQty int        `json:"position_qty,omitempty"`
	Order       Order      `json:"order"`
}
