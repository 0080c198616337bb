package entitlements

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/rcctl/internal/ctxlog"
	"github.com/specialistvlad/rcctl/internal/revenuecat"
)

// DefaultLimit caps concurrent detail lookups when Enricher.Limit is unset.
const DefaultLimit = 8

// Backend is the subset of *revenuecat.Client the enricher needs.
type Backend interface {
	GetActiveEntitlements(ctx context.Context, userID string) (*revenuecat.List[revenuecat.CustomerEntitlement], error)
	GetEntitlement(ctx context.Context, entitlementID string) (*revenuecat.Entitlement, error)
}

// Row is one active entitlement ready for display.
type Row struct {
	ID          string
	DisplayName string
	// ExpiresAt is epoch milliseconds, nil when the grant never expires.
	ExpiresAt *int64
	// LookupErr is the detail lookup failure that forced the ID fallback.
	LookupErr error
}

// Enricher resolves display names for a customer's active entitlements.
type Enricher struct {
	Backend Backend
	Limit   int
}

// ActiveEntitlements lists userID's active entitlements with display names.
// Only the listing call can fail; rows keep the server's item order.
func (e *Enricher) ActiveEntitlements(ctx context.Context, userID string) ([]Row, error) {
	ctx = ctxlog.With(ctx, "user_id", userID)
	active, err := e.Backend.GetActiveEntitlements(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(active.Items))
	limit := e.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range active.Items {
		g.Go(func() error {
			rows[i] = e.row(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return rows, nil
}

func (e *Enricher) row(ctx context.Context, item revenuecat.CustomerEntitlement) Row {
	row := Row{
		ID:          item.EntitlementID,
		DisplayName: item.EntitlementID,
		ExpiresAt:   item.ExpiresAt,
	}

	detail, err := e.Backend.GetEntitlement(ctx, item.EntitlementID)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Entitlement detail lookup failed, using ID as name.",
			"entitlement_id", item.EntitlementID, "error", err)
		row.LookupErr = err
		return row
	}
	if detail.DisplayName != "" {
		row.DisplayName = detail.DisplayName
	}
	return row
}
