// Package main provides the entry point for nftreg-server.
//
// The server hosts the token registry:
//
//   - HTTP/HTTPS API for registry queries, token operations and
//     custodian administration
//   - WAL plus snapshot persistence with optional at-rest encryption
//   - Prometheus metrics on /metrics
//
// Usage:
//
//	nftreg-server [flags]
//	nftreg-server --config /path/to/config.yaml
//
// The server loads configuration, replays persisted state, and starts
// the HTTP listener.
package main
