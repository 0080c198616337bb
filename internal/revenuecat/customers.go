package revenuecat

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetCustomer fetches the raw customer object for userID.
func (c *Client) GetCustomer(ctx context.Context, userID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := c.projectPath("customers", escapeSegment(userID))
	if err := c.do(ctx, "fetch customer data", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
