package revenuecat

// List is one page of a collection. Only the first page is ever requested;
// NextPage is surfaced as returned by the server.
type List[T any] struct {
	Object   string  `json:"object"`
	Items    []T     `json:"items"`
	NextPage *string `json:"next_page"`
	URL      string  `json:"url"`
}

// CustomerEntitlement is an entitlement currently active for a customer.
// A nil ExpiresAt means the entitlement does not expire.
type CustomerEntitlement struct {
	Object        string `json:"object"`
	EntitlementID string `json:"entitlement_id"`
	ExpiresAt     *int64 `json:"expires_at"`
}

// Entitlement is a project-level entitlement definition.
type Entitlement struct {
	Object      string `json:"object"`
	ProjectID   string `json:"project_id"`
	ID          string `json:"id"`
	LookupKey   string `json:"lookup_key"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// VirtualCurrencyBalance is a customer's balance in one currency.
type VirtualCurrencyBalance struct {
	Object       string `json:"object"`
	CurrencyCode string `json:"currency_code"`
	Balance      int64  `json:"balance"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
}

type grantEntitlementRequest struct {
	EntitlementID string `json:"entitlement_id"`
	ExpiresAt     int64  `json:"expires_at"`
}

type revokeEntitlementRequest struct {
	EntitlementID string `json:"entitlement_id"`
}

type updateBalanceRequest struct {
	Adjustments map[string]int64 `json:"adjustments"`
	Reference   string           `json:"reference,omitempty"`
}
