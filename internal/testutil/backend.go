package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/rcctl/internal/revenuecat"
)

// Request is one call observed by the fake backend.
type Request struct {
	Method      string
	EscapedPath string
	Header      http.Header
	Body        []byte
}

// ExecutionRecord holds the start and end times of one handled request.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Backend is an httptest server that speaks the subset of the RevenueCat V2
// API used by rcctl, backed by in-memory state. Balances are computed by the
// backend, never by the client.
type Backend struct {
	APIKey    string
	ProjectID string

	// DetailDelay is slept inside every entitlement detail lookup.
	DetailDelay time.Duration

	t      *testing.T
	server *httptest.Server
	state  *store

	mu          sync.Mutex
	requests    []Request
	failures    map[string]int
	failAll     int
	inFlight    int
	maxInFlight int
	details     []ExecutionRecord
}

// NewBackend starts a fake backend that is shut down when the test ends.
func NewBackend(t *testing.T, apiKey, projectID string) *Backend {
	t.Helper()

	b := &Backend{
		APIKey:    apiKey,
		ProjectID: projectID,
		t:         t,
		state:     newStore(),
		failures:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/projects/{project}/customers/{user}", b.getCustomer)
	mux.HandleFunc("GET /v2/projects/{project}/customers/{user}/active_entitlements", b.getActiveEntitlements)
	mux.HandleFunc("GET /v2/projects/{project}/entitlements", b.listEntitlements)
	mux.HandleFunc("GET /v2/projects/{project}/entitlements/{entitlement}", b.getEntitlement)
	mux.HandleFunc("POST /v2/projects/{project}/customers/{user}/actions/grant_entitlement", b.grantEntitlement)
	mux.HandleFunc("POST /v2/projects/{project}/customers/{user}/actions/revoke_granted_entitlement", b.revokeEntitlement)
	mux.HandleFunc("GET /v2/projects/{project}/customers/{user}/virtual_currencies", b.getBalances)
	mux.HandleFunc("POST /v2/projects/{project}/customers/{user}/virtual_currencies/update_balance", b.updateBalance)

	b.server = httptest.NewServer(b.middleware(mux))
	t.Cleanup(b.server.Close)
	return b
}

// BaseURL is the versioned API root to hand to revenuecat.WithBaseURL.
func (b *Backend) BaseURL() string {
	return b.server.URL + "/v2"
}

// Client returns a revenuecat.Client pointed at the backend with valid
// credentials. Its idle connections are closed when the test ends.
func (b *Backend) Client() *revenuecat.Client {
	hc := revenuecat.NewHTTPClient(0)
	b.t.Cleanup(hc.CloseIdleConnections)
	return revenuecat.New(b.APIKey, b.ProjectID,
		revenuecat.WithBaseURL(b.BaseURL()),
		revenuecat.WithHTTPClient(hc),
	)
}

// AddEntitlement adds a definition to the project catalog.
func (b *Backend) AddEntitlement(id, lookupKey, displayName string) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.entitlements = append(b.state.entitlements, revenuecat.Entitlement{
		Object:      "entitlement",
		ProjectID:   b.ProjectID,
		ID:          id,
		LookupKey:   lookupKey,
		DisplayName: displayName,
		CreatedAt:   1700000000000,
	})
}

// AddCurrency registers a virtual currency's metadata.
func (b *Backend) AddCurrency(code, name, description string) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.currencies[code] = currencyMeta{name: name, description: description}
}

// AddCustomer creates an empty customer.
func (b *Backend) AddCustomer(userID string) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.customer(userID, true)
}

// Grant seeds an active entitlement. A nil expiresAt never expires.
func (b *Backend) Grant(userID, entitlementID string, expiresAt *int64) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.customer(userID, true).grants[entitlementID] = expiresAt
}

// SetBalance seeds a balance.
func (b *Backend) SetBalance(userID, code string, balance int64) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.customer(userID, true).balances[code] = balance
}

// Balance returns the backend's current balance for userID.
func (b *Backend) Balance(userID, code string) int64 {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	if c := b.state.customer(userID, false); c != nil {
		return c.balances[code]
	}
	return 0
}

// GrantOf returns the stored grant expiry and whether the grant exists.
func (b *Backend) GrantOf(userID, entitlementID string) (*int64, bool) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	c := b.state.customer(userID, false)
	if c == nil {
		return nil, false
	}
	exp, ok := c.grants[entitlementID]
	return exp, ok
}

// FailEntitlement makes detail lookups of entitlementID answer with status.
func (b *Backend) FailEntitlement(entitlementID string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[entitlementID] = status
}

// FailAll makes every request answer with status. Zero restores normal service.
func (b *Backend) FailAll(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAll = status
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}
	}
	return b.requests[len(b.requests)-1]
}

// MaxConcurrentDetails is the peak number of overlapping detail lookups.
func (b *Backend) MaxConcurrentDetails() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxInFlight
}

// DetailExecutions returns the timing of every detail lookup.
func (b *Backend) DetailExecutions() []ExecutionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ExecutionRecord(nil), b.details...)
}

func (b *Backend) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:      r.Method,
			EscapedPath: r.URL.EscapedPath(),
			Header:      r.Header.Clone(),
			Body:        body,
		})
		failAll := b.failAll
		b.mu.Unlock()

		if failAll != 0 {
			writeError(w, failAll, "injected failure")
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// project rejects requests for any project other than b.ProjectID.
func (b *Backend) project(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("project") != b.ProjectID {
		writeError(w, http.StatusNotFound, "project not found")
		return false
	}
	return true
}

func (b *Backend) getCustomer(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}
	userID := r.PathValue("user")

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	c := b.state.customer(userID, false)
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, b.customerBody(userID, c))
}

func (b *Backend) getActiveEntitlements(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	c := b.state.customer(r.PathValue("user"), false)
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, list(r, b.state.activeEntitlements(c)))
}

func (b *Backend) listEntitlements(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	items := append([]revenuecat.Entitlement{}, b.state.entitlements...)
	writeJSON(w, http.StatusOK, list(r, items))
}

func (b *Backend) getEntitlement(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}
	id := r.PathValue("entitlement")

	b.mu.Lock()
	status := b.failures[id]
	b.inFlight++
	if b.inFlight > b.maxInFlight {
		b.maxInFlight = b.inFlight
	}
	b.mu.Unlock()

	start := time.Now()
	if b.DetailDelay > 0 {
		time.Sleep(b.DetailDelay)
	}
	b.mu.Lock()
	b.inFlight--
	b.details = append(b.details, ExecutionRecord{Start: start, End: time.Now()})
	b.mu.Unlock()

	if status != 0 {
		writeError(w, status, "injected failure")
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	e, ok := b.state.entitlement(id)
	if !ok {
		writeError(w, http.StatusNotFound, "entitlement not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (b *Backend) grantEntitlement(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}
	var in struct {
		EntitlementID string `json:"entitlement_id"`
		ExpiresAt     *int64 `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.EntitlementID == "" || in.ExpiresAt == nil {
		writeError(w, http.StatusBadRequest, "entitlement_id and expires_at are required")
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	if _, ok := b.state.entitlement(in.EntitlementID); !ok {
		writeError(w, http.StatusNotFound, "entitlement not found")
		return
	}
	userID := r.PathValue("user")
	c := b.state.customer(userID, true)
	c.grants[in.EntitlementID] = in.ExpiresAt
	writeJSON(w, http.StatusCreated, b.customerBody(userID, c))
}

func (b *Backend) revokeEntitlement(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}
	var in struct {
		EntitlementID string `json:"entitlement_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.EntitlementID == "" {
		writeError(w, http.StatusBadRequest, "entitlement_id is required")
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	userID := r.PathValue("user")
	c := b.state.customer(userID, false)
	if c == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if _, ok := c.grants[in.EntitlementID]; !ok {
		writeError(w, http.StatusNotFound, "granted entitlement not found")
		return
	}
	delete(c.grants, in.EntitlementID)
	writeJSON(w, http.StatusOK, b.customerBody(userID, c))
}

func (b *Backend) getBalances(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	c := b.state.customer(r.PathValue("user"), false)
	if c == nil {
		writeJSON(w, http.StatusOK, list(r, []revenuecat.VirtualCurrencyBalance{}))
		return
	}
	writeJSON(w, http.StatusOK, list(r, b.state.balances(c)))
}

func (b *Backend) updateBalance(w http.ResponseWriter, r *http.Request) {
	if !b.project(w, r) {
		return
	}
	var in struct {
		Adjustments map[string]int64 `json:"adjustments"`
		Reference   *string          `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Adjustments) == 0 {
		writeError(w, http.StatusBadRequest, "adjustments are required")
		return
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	c := b.state.customer(r.PathValue("user"), true)
	for code, delta := range in.Adjustments {
		if c.balances[code]+delta < 0 {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("insufficient %s balance", code))
			return
		}
	}
	for code, delta := range in.Adjustments {
		c.balances[code] += delta
	}
	writeJSON(w, http.StatusOK, list(r, b.state.balances(c)))
}

// customerBody renders a customer object. Callers hold b.state.mu.
func (b *Backend) customerBody(userID string, c *customerState) map[string]any {
	return map[string]any{
		"object":        "customer",
		"id":            userID,
		"project_id":    b.ProjectID,
		"first_seen_at": 1700000000000,
		"active_entitlements": map[string]any{
			"object":    "list",
			"items":     b.state.activeEntitlements(c),
			"next_page": nil,
		},
	}
}

func list[T any](r *http.Request, items []T) revenuecat.List[T] {
	return revenuecat.List[T]{Object: "list", Items: items, URL: r.URL.Path}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"object":  "error",
		"type":    "invalid_request",
		"message": message,
	})
}
