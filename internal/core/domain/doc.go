// Package domain defines the core domain models for the token registry.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Identity: opaque principal identifier with a zero sentinel
//   - Token: registered token entity with owner, approval, metadata
//   - Metadata: typed key-value metadata parts attached at mint
//   - Logo: optional registry logo asset
//   - Errors: domain-specific error definitions
package domain
