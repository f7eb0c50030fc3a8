// Package httpserver provides the HTTP/HTTPS server for the token
// registry.
//
// It implements the external API on stdlib net/http:
//
//   - Query endpoints: /registry/* (public reads)
//   - Mutation endpoints: /registry/tokens*, /registry/operators (API key required)
//   - Admin endpoints: /admin/v1/* (admin role required)
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, CORS, RequestID, RateLimit, Auth, Audit.
package httpserver
