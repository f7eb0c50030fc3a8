// Package output provides output formatting for nftreg-cli.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering
//   - json.go: JSON output formatting
//
// Formatters produce either human-readable tables or
// machine-readable JSON for scripting.
package output
