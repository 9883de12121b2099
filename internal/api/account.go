package api

import (
	"context"
	"fmt"

	"github.com/quantfeed/alpaca-stream/internal/model"
)

// GetAccount retrieves the trading account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*model.Account, error) {
	var acct model.Account
	if err := c.get(ctx, "/v2/account", nil, &acct); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// ListPositions retrieves all open positions.
func (c *Client) ListPositions(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	if err := c.get(ctx, "/v2/positions", nil, &positions); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// GetPosition retrieves the open position for one symbol.
func (c *Client) GetPosition(ctx context.Context, symbol string) (*model.Position, error) {
	var pos model.Position
	if err := c.get(ctx, "/v2/positions/"+symbol, nil, &pos); err != nil {
		return nil, fmt.Errorf("get position %s: %w", symbol, err)
	}
	return &pos, nil
}
