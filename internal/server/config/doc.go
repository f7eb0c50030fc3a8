// Package config defines the server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: startup validation (mint window dates are fatal here)
//   - sanitize.go: masking of secrets for config logging
//
// Configuration is loaded via internal/infra/confloader from file and
// environment sources.
package config
