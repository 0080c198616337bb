// Package entitlements joins a customer's active entitlements with their
// catalog display names. Detail lookups run concurrently and a failed lookup
// degrades to the raw entitlement ID instead of failing the listing.
package entitlements
