package app

import "context"

// ShowCustomer prints the customer document for userID, or only the value at
// the gjson path field when it is non-empty.
func (a *App) ShowCustomer(ctx context.Context, userID, field string) error {
	ctx = a.context(ctx)
	raw, err := a.client.GetCustomer(ctx, userID)
	if err != nil {
		return err
	}
	if field != "" {
		return a.printer.Field(raw, field)
	}
	return a.printer.JSON(raw)
}

// ShowActiveEntitlements prints userID's active entitlements with display
// names resolved.
func (a *App) ShowActiveEntitlements(ctx context.Context, userID string) error {
	ctx = a.context(ctx)
	rows, err := a.enricher.ActiveEntitlements(ctx, userID)
	if err != nil {
		return err
	}
	return a.printer.ActiveEntitlements(rows)
}

// ShowCatalog prints every entitlement defined in the project.
func (a *App) ShowCatalog(ctx context.Context) error {
	ctx = a.context(ctx)
	list, err := a.client.ListEntitlements(ctx)
	if err != nil {
		return err
	}
	return a.printer.Catalog(list.Items)
}

// Grant resolves expiration and grants entitlementID to userID. An
// unparseable expiration fails before any request is made.
func (a *App) Grant(ctx context.Context, userID, entitlementID, expiration string) error {
	ctx = a.context(ctx)
	expiresAt, err := a.resolver.Resolve(expiration)
	if err != nil {
		return err
	}
	a.logger.Debug("Expiration resolved.", "input", expiration, "expires_at", expiresAt)

	if _, err := a.client.GrantEntitlement(ctx, userID, entitlementID, expiresAt); err != nil {
		return err
	}
	a.printer.Success("Successfully granted entitlement %s to user %s", entitlementID, userID)
	a.printer.Detail("Expires: %s", a.printer.FullTime(expiresAt))
	return nil
}

// Revoke removes a granted entitlement from userID.
func (a *App) Revoke(ctx context.Context, userID, entitlementID string) error {
	ctx = a.context(ctx)
	if _, err := a.client.RevokeEntitlement(ctx, userID, entitlementID); err != nil {
		return err
	}
	a.printer.Success("Successfully revoked entitlement %s from user %s", entitlementID, userID)
	return nil
}

// ShowBalances prints userID's virtual currency balances.
func (a *App) ShowBalances(ctx context.Context, userID string) error {
	ctx = a.context(ctx)
	list, err := a.client.GetVirtualCurrencies(ctx, userID)
	if err != nil {
		return err
	}
	return a.printer.Balances(list.Items)
}

// AdjustBalance applies a signed amount of currencyCode to userID's balance
// and prints the balance the server computed.
func (a *App) AdjustBalance(ctx context.Context, userID, currencyCode string, amount int64, reference string) error {
	ctx = a.context(ctx)
	list, err := a.client.UpdateVirtualCurrencyBalance(ctx, userID, map[string]int64{currencyCode: amount}, reference)
	if err != nil {
		return err
	}
	a.printer.BalanceUpdated(currencyCode, list.Items)
	return nil
}
