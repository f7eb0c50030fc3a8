package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mintworks/nftregistry-go/internal/core/ledger"
)

// Verify validates the configuration. Registry window dates are
// checked here so a misconfigured window aborts startup instead of
// surfacing on the first self-mint.
func Verify(cfg *ServerConfig) error {
	if err := verifyRegistry(&cfg.Registry); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	return nil
}

func verifyRegistry(cfg *RegistrySection) error {
	if _, err := ledger.ParseMintWindow(cfg.BeginDate, cfg.EndDate); err != nil {
		return fmt.Errorf("registry mint window: %w", err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.SnapshotKeep < 1 {
		return errors.New("storage.snapshot_keep must be at least 1")
	}
	switch cfg.WALSyncMode {
	case "", "batch", "sync":
	default:
		return fmt.Errorf("storage.wal_sync_mode %q is not batch or sync", cfg.WALSyncMode)
	}
	switch cfg.ContentEngine {
	case "", "badger", "memory":
	default:
		return fmt.Errorf("storage.content_engine %q is not badger or memory", cfg.ContentEngine)
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	seen := make(map[string]bool, len(cfg.APIKeys))
	for i, key := range cfg.APIKeys {
		if key.ID == "" || key.Secret == "" {
			return fmt.Errorf("security.api_keys[%d]: id and secret are required", i)
		}
		if key.Identity == "" {
			return fmt.Errorf("security.api_keys[%d]: identity is required", i)
		}
		if seen[key.ID] {
			return fmt.Errorf("security.api_keys[%d]: duplicate id %q", i, key.ID)
		}
		seen[key.ID] = true
		switch key.Role {
		case "", "user", "admin", "metrics":
		default:
			return fmt.Errorf("security.api_keys[%d]: role %q is not user, admin or metrics", i, key.Role)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			return errors.New("security.rate_limit.rps must be positive")
		}
		if cfg.RateLimit.Burst < 1 {
			return errors.New("security.rate_limit.burst must be at least 1")
		}
	}
	return nil
}
