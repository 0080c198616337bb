// Package app contains rcctl's command logic. It wires settings into a
// backend client, resolves expirations, and prints results, decoupled from
// the command-line parsing in internal/cli.
package app
