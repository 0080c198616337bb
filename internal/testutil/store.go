package testutil

import (
	"sort"
	"sync"

	"github.com/specialistvlad/rcctl/internal/revenuecat"
)

// customerState is the server-owned state of one customer.
type customerState struct {
	grants   map[string]*int64
	balances map[string]int64
}

// currencyMeta describes a project-level virtual currency.
type currencyMeta struct {
	name        string
	description string
}

// store is the fake backend's in-memory state. Handlers run concurrently
// and hold mu around every access.
type store struct {
	mu           sync.Mutex
	customers    map[string]*customerState
	entitlements []revenuecat.Entitlement
	currencies   map[string]currencyMeta
}

func newStore() *store {
	return &store{
		customers:  make(map[string]*customerState),
		currencies: make(map[string]currencyMeta),
	}
}

// customer returns the state for id, creating it when create is set.
// Callers hold s.mu.
func (s *store) customer(id string, create bool) *customerState {
	c, ok := s.customers[id]
	if !ok && create {
		c = &customerState{
			grants:   make(map[string]*int64),
			balances: make(map[string]int64),
		}
		s.customers[id] = c
	}
	return c
}

// entitlement returns the catalog entry for id. Callers hold s.mu.
func (s *store) entitlement(id string) (revenuecat.Entitlement, bool) {
	for _, e := range s.entitlements {
		if e.ID == id {
			return e, true
		}
	}
	return revenuecat.Entitlement{}, false
}

// activeEntitlements lists c's grants sorted by entitlement ID. Callers hold s.mu.
func (s *store) activeEntitlements(c *customerState) []revenuecat.CustomerEntitlement {
	items := make([]revenuecat.CustomerEntitlement, 0, len(c.grants))
	for id, exp := range c.grants {
		items = append(items, revenuecat.CustomerEntitlement{
			Object:        "customer.active_entitlement",
			EntitlementID: id,
			ExpiresAt:     exp,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].EntitlementID < items[j].EntitlementID })
	return items
}

// balances lists c's balances sorted by currency code. Callers hold s.mu.
func (s *store) balances(c *customerState) []revenuecat.VirtualCurrencyBalance {
	items := make([]revenuecat.VirtualCurrencyBalance, 0, len(c.balances))
	for code, balance := range c.balances {
		meta := s.currencies[code]
		items = append(items, revenuecat.VirtualCurrencyBalance{
			Object:       "virtual_currency_balance",
			CurrencyCode: code,
			Balance:      balance,
			Name:         meta.name,
			Description:  meta.description,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CurrencyCode < items[j].CurrencyCode })
	return items
}
