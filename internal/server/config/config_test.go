package config

import (
	"strings"
	"testing"
)

func validConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = t.TempDir()
	return cfg
}

func TestDefaultIsValid(t *testing.T) {
	cfg := validConfig(t)
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify(Default) = %v", err)
	}
}

func TestVerifyRejectsBadWindowDates(t *testing.T) {
	tests := []struct {
		name  string
		begin string
		end   string
	}{
		{"garbage begin", "not-a-date", DefaultEndDate},
		{"garbage end", DefaultBeginDate, "2030-13-45 99:00:00"},
		{"wrong layout", "2024/01/01 00:00:00", DefaultEndDate},
		{"empty begin", "", DefaultEndDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Registry.BeginDate = tt.begin
			cfg.Registry.EndDate = tt.end
			if err := Verify(cfg); err == nil {
				t.Fatal("Verify accepted invalid window dates")
			}
		})
	}
}

func TestVerifyStorage(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.DataDir = ""
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted empty data_dir")
	}

	cfg = validConfig(t)
	cfg.Storage.SnapshotKeep = 0
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted snapshot_keep 0")
	}

	cfg = validConfig(t)
	cfg.Storage.WALSyncMode = "every-other-tuesday"
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted bogus wal_sync_mode")
	}

	cfg = validConfig(t)
	cfg.Storage.ContentEngine = "redis"
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted bogus content_engine")
	}
}

func TestVerifyAPIKeys(t *testing.T) {
	cfg := validConfig(t)
	cfg.Security.APIKeys = []APIKeySpec{{ID: "k1", Secret: "nrk_abc", Identity: "alice", Role: "admin"}}
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify = %v", err)
	}

	cfg.Security.APIKeys = append(cfg.Security.APIKeys, APIKeySpec{ID: "k1", Secret: "x", Identity: "bob"})
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted duplicate key id")
	}

	cfg.Security.APIKeys = []APIKeySpec{{ID: "k1", Secret: "s", Identity: "alice", Role: "superuser"}}
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted unknown role")
	}

	cfg.Security.APIKeys = []APIKeySpec{{ID: "k1", Secret: "s", Identity: ""}}
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted key without identity")
	}
}

func TestVerifyRateLimit(t *testing.T) {
	cfg := validConfig(t)
	cfg.Security.RateLimit = RateLimitConfig{Enabled: true, RPS: 0, Burst: 10}
	if err := Verify(cfg); err == nil {
		t.Fatal("Verify accepted zero rps")
	}

	cfg.Security.RateLimit = RateLimitConfig{Enabled: false}
	if err := Verify(cfg); err != nil {
		t.Fatalf("disabled rate limit rejected: %v", err)
	}
}

func TestSanitizeMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Security.EncryptionKey = "super-secret-key-material"
	cfg.Security.APIKeys = []APIKeySpec{{ID: "k1", Secret: "nrk_veryhidden", Identity: "alice"}}

	s := Sanitize(cfg)
	if strings.Contains(s.Security.EncryptionKey, "secret-key") {
		t.Fatalf("encryption key leaked: %q", s.Security.EncryptionKey)
	}
	if strings.Contains(s.Security.APIKeys[0].Secret, "veryhidden") {
		t.Fatalf("api key secret leaked: %q", s.Security.APIKeys[0].Secret)
	}

	// The original must be untouched.
	if cfg.Security.APIKeys[0].Secret != "nrk_veryhidden" {
		t.Fatal("Sanitize mutated the original config")
	}
}
