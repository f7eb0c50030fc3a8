package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for
// logging at startup.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Security.EncryptionKey != "" {
		sanitized.Security.EncryptionKey = maskSecret(sanitized.Security.EncryptionKey)
	}

	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]APIKeySpec, len(cfg.Security.APIKeys))
		copy(keys, cfg.Security.APIKeys)
		for i := range keys {
			keys[i].Secret = maskSecret(keys[i].Secret)
		}
		sanitized.Security.APIKeys = keys
	}

	return &sanitized
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
