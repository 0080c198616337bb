package revenuecat

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetActiveEntitlements returns the first page of entitlements currently
// active for userID.
func (c *Client) GetActiveEntitlements(ctx context.Context, userID string) (*List[CustomerEntitlement], error) {
	out := new(List[CustomerEntitlement])
	path := c.projectPath("customers", escapeSegment(userID), "active_entitlements")
	if err := c.do(ctx, "fetch entitlements", http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntitlement fetches one entitlement definition.
func (c *Client) GetEntitlement(ctx context.Context, entitlementID string) (*Entitlement, error) {
	out := new(Entitlement)
	path := c.projectPath("entitlements", escapeSegment(entitlementID))
	if err := c.do(ctx, "fetch entitlement details", http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntitlements returns the first page of the project's entitlement catalog.
func (c *Client) ListEntitlements(ctx context.Context) (*List[Entitlement], error) {
	out := new(List[Entitlement])
	if err := c.do(ctx, "list entitlements", http.MethodGet, c.projectPath("entitlements"), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GrantEntitlement grants entitlementID to userID until expiresAtMs (epoch
// milliseconds) and returns the updated customer object.
func (c *Client) GrantEntitlement(ctx context.Context, userID, entitlementID string, expiresAtMs int64) (json.RawMessage, error) {
	var out json.RawMessage
	path := c.projectPath("customers", escapeSegment(userID), "actions", "grant_entitlement")
	in := grantEntitlementRequest{EntitlementID: entitlementID, ExpiresAt: expiresAtMs}
	if err := c.do(ctx, "grant entitlement", http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeEntitlement revokes a previously granted entitlement and returns the
// updated customer object.
func (c *Client) RevokeEntitlement(ctx context.Context, userID, entitlementID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := c.projectPath("customers", escapeSegment(userID), "actions", "revoke_granted_entitlement")
	in := revokeEntitlementRequest{EntitlementID: entitlementID}
	if err := c.do(ctx, "revoke entitlement", http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}
