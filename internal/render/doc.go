// Package render formats backend results for a terminal: bordered tables,
// pretty JSON, check-marked status lines and human-readable instants.
package render
