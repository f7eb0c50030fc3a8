package domain

import "context"

// Role classifies what an API key may do at the transport layer.
// Custodian checks stay in the ledger; the admin role only opens the
// /admin/v1 surface.
type Role string

const (
	// RoleUser may call the business API.
	RoleUser Role = "user"

	// RoleAdmin may additionally call the admin API.
	RoleAdmin Role = "admin"

	// RoleMetrics may only scrape /metrics.
	RoleMetrics Role = "metrics"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleMetrics:
		return true
	}
	return false
}

// APIKey is an authenticated API credential. The Identity becomes the
// ledger caller for every request made with the key.
type APIKey struct {
	KeyID    string
	Identity Identity
	Role     Role
}

type apiKeyContextKey struct{}

// WithAPIKey stores the authenticated API key in the context.
func WithAPIKey(ctx context.Context, key *APIKey) context.Context {
	return context.WithValue(ctx, apiKeyContextKey{}, key)
}

// APIKeyFromContext returns the authenticated API key, or nil when
// the request was not authenticated.
func APIKeyFromContext(ctx context.Context) *APIKey {
	if key, ok := ctx.Value(apiKeyContextKey{}).(*APIKey); ok {
		return key
	}
	return nil
}
