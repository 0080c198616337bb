package revenuecat

import (
	"context"
	"net/http"
)

// GetVirtualCurrencies returns the first page of userID's balances.
func (c *Client) GetVirtualCurrencies(ctx context.Context, userID string) (*List[VirtualCurrencyBalance], error) {
	out := new(List[VirtualCurrencyBalance])
	path := c.projectPath("customers", escapeSegment(userID), "virtual_currencies")
	if err := c.do(ctx, "fetch virtual currencies", http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVirtualCurrencyBalance applies signed deltas, keyed by currency code,
// to userID's balances. The server computes the resulting balances, which are
// returned as-is. An empty reference is left out of the request.
func (c *Client) UpdateVirtualCurrencyBalance(ctx context.Context, userID string, adjustments map[string]int64, reference string) (*List[VirtualCurrencyBalance], error) {
	out := new(List[VirtualCurrencyBalance])
	path := c.projectPath("customers", escapeSegment(userID), "virtual_currencies", "update_balance")
	in := updateBalanceRequest{Adjustments: adjustments, Reference: reference}
	if err := c.do(ctx, "update virtual currency balance", http.MethodPost, path, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
