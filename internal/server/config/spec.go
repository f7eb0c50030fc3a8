package config

import "time"

// ServerConfig is the root configuration for nftreg-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Registry RegistrySection `koanf:"registry"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Notify   NotifySection   `koanf:"notify"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RegistrySection seeds the token registry. Whitelist, mint window
// and total limit are fixed at init; name, symbol, logo and
// custodians can later be changed through the custodian API.
type RegistrySection struct {
	Name       string   `koanf:"name"`
	Symbol     string   `koanf:"symbol"`
	Custodians []string `koanf:"custodians"`
	Whitelist  []string `koanf:"whitelist"`

	// BeginDate and EndDate bound the public self-mint window,
	// format "2006-01-02 15:04:05", interpreted as UTC. Invalid
	// dates fail startup.
	BeginDate string `koanf:"begin_date"`
	EndDate   string `koanf:"end_date"`

	// TotalLimit is stored and surfaced but never enforced.
	TotalLimit string `koanf:"total_limit"`
}

// StorageSection configures storage behavior.
type StorageSection struct {
	DataDir          string        `koanf:"data_dir"`
	WALSyncMode      string        `koanf:"wal_sync_mode"` // "batch" or "sync"
	WALSyncInterval  time.Duration `koanf:"wal_sync_interval"`
	SnapshotKeep     int           `koanf:"snapshot_keep"`
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// ContentEngine selects the blob store: "badger" or "memory".
	ContentEngine string `koanf:"content_engine"`
}

// APIKeySpec declares one API key. The secret is compared in constant
// time; the identity becomes the ledger caller for every request
// authenticated with the key.
type APIKeySpec struct {
	ID       string `koanf:"id"`
	Secret   string `koanf:"secret"`
	Identity string `koanf:"identity"`
	Role     string `koanf:"role"` // "user", "admin" or "metrics"
}

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// EncryptionKey enables at-rest encryption of WAL frames and
	// snapshots when set (hex or raw string, min 16 bytes).
	EncryptionKey string `koanf:"encryption_key"`

	APIKeys   []APIKeySpec    `koanf:"api_keys"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// NotifySection configures transfer-notification webhooks.
type NotifySection struct {
	// Endpoints maps recipient identity to webhook URL.
	Endpoints map[string]string `koanf:"endpoints"`

	// DefaultURL receives notifications for unmapped identities.
	DefaultURL string `koanf:"default_url"`

	Timeout time.Duration `koanf:"timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
