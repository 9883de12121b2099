package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/quantfeed/alpaca-stream/internal/model"
)

// ListOrders retrieves orders filtered by status ("open", "closed", "all").
func (c *Client) ListOrders(ctx context.Context, status string, limit int) ([]model.Order, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var orders []model.Order
	if err := c.get(ctx, "/v2/orders", query, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves one order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	if err := c.get(ctx, "/v2/orders/"+orderID, nil, &order); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &order, nil
}

// PlaceOrder submits a new order and returns the accepted order.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.post(ctx, "/v2/orders", req, &order); err != nil {
		return nil, fmt.Errorf("place order %s %s: %w", req.Side, req.Symbol, err)
	}
	return &order, nil
}

// CancelOrder cancels an open order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.del(ctx, "/v2/orders/"+orderID); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}
