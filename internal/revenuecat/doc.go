// Package revenuecat is a client for the RevenueCat V2 REST API.
//
// A Client is scoped to one project and authenticates every request with a
// bearer API key. Each exported method performs exactly one HTTP exchange and
// returns the decoded response body unmodified. Every failure is reported as
// an *APIError: HTTP-level failures carry the status code and text, while
// transport and decode failures carry only a message.
package revenuecat
