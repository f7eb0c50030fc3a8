// Package handler provides the HTTP request handlers for the token
// registry.
//
// This package contains handlers for all HTTP endpoints:
//
//   - registry.go: Public registry queries
//   - token.go: Mint, transfer, approval and burn operations
//   - admin.go: Custodian-gated settings and snapshots
//   - health.go: Health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the registry service
//   - Format and return the response envelope
//   - Map domain error codes to HTTP status codes
package handler
