package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is the trading account snapshot returned by the REST API and
// carried by account_updates stream messages.
type Account struct {
	ID               string    `json:"id"`
	AccountNumber    string    `json:"account_number"`
	Status           string    `json:"status"`
	Currency         string    `json:"currency"`
	Cash             string    `json:"cash"`
	PortfolioValue   string    `json:"portfolio_value"`
	BuyingPower      string    `json:"buying_power"`
	Equity           string    `json:"equity"`
	PatternDayTrader bool      `json:"pattern_day_trader"`
	TradingBlocked   bool      `json:"trading_blocked"`
	CreatedAt        time.Time `json:"created_at"`
}

// Position is an open position on one symbol.
type Position struct {
	AssetID       string `json:"asset_id"`
	Symbol        string `json:"symbol"`
	Exchange      string `json:"exchange"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	AvgEntryPrice string `json:"avg_entry_price"`
	MarketValue   string `json:"market_value"`
	CostBasis     string `json:"cost_basis"`
	UnrealizedPL  string `json:"unrealized_pl"`
	CurrentPrice  string `json:"current_price"`
}

// Order is a venue order as returned by the REST API and embedded in
// TradeUpdate events.
type Order struct {
	ID            string     `json:"id"`
	ClientOrderID string     `json:"client_order_id"`
	Symbol        string     `json:"symbol"`
	Qty           string     `json:"qty"`
	FilledQty     string     `json:"filled_qty"`
	Side          string     `json:"side"`
	Type          string     `json:"type"`
	TimeInForce   string     `json:"time_in_force"`
	LimitPrice    string     `json:"limit_price,omitempty"`
	StopPrice     string     `json:"stop_price,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	FilledAt      *time.Time `json:"filled_at,omitempty"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
}

// OrderRequest is the payload for placing a new order. NewOrderRequest
// assigns a fresh client order ID so retried placements stay idempotent.
type OrderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Qty           int    `json:"qty"`
	Side          string `json:"side"`          // "buy" or "sell"
	Type          string `json:"type"`          // "market", "limit", "stop", "stop_limit"
	TimeInForce   string `json:"time_in_force"` // "day", "gtc", "ioc", "fok"
	LimitPrice    string `json:"limit_price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
}

// NewOrderRequest builds an OrderRequest with a generated client order ID.
func NewOrderRequest(symbol string, qty int, side string) OrderRequest {
	return OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        symbol,
		Qty:           qty,
		Side:          side,
		Type:          "market",
		TimeInForce:   "day",
	}
}
