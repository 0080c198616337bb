// Package expiry turns a human-entered expiration (a duration such as "7d",
// an ISO-8601 timestamp, or the keyword "never") into an absolute instant
// expressed in epoch milliseconds.
//
// Durations use fixed nominal unit lengths. A month is always 30 days and a
// year is always 365 days; no calendar arithmetic is performed.
package expiry
