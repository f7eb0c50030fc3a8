package logger

import (
	"log/slog"
	"testing"
)

func TestRedactSensitiveByValuePrefix(t *testing.T) {
	a := redactSensitive(slog.String("token", "nrk_supersecretvalue"))
	got := a.Value.String()
	if got == "nrk_supersecretvalue" {
		t.Fatal("prefixed secret not masked")
	}
	if got[:4] != "nrk_" {
		t.Fatalf("mask lost the prefix: %q", got)
	}
}

func TestRedactSensitiveByKeyName(t *testing.T) {
	tests := []struct {
		key    string
		redact bool
	}{
		{"password", true},
		{"db_password", true},
		{"api_key", true},
		{"passphrase", true},
		{"user", false},
		{"token_id", false},
	}
	for _, tt := range tests {
		a := redactSensitive(slog.String(tt.key, "value"))
		redacted := a.Value.String() == redactedValue
		if redacted != tt.redact {
			t.Errorf("redactSensitive(%q) redacted = %v, want %v", tt.key, redacted, tt.redact)
		}
	}
}

func TestRedactEmptyValueKept(t *testing.T) {
	a := redactSensitive(slog.String("password", ""))
	if a.Value.String() != "" {
		t.Fatalf("empty value rewritten to %q", a.Value.String())
	}
}

func TestRedactNestedGroup(t *testing.T) {
	g := slog.Group("auth", slog.String("secret", "hunter2"), slog.String("user", "alice"))
	a := redactSensitive(g)

	attrs := a.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Fatalf("nested secret survived: %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "alice" {
		t.Fatalf("nested benign attr redacted: %q", attrs[1].Value.String())
	}
}

func TestMaskValueShortBody(t *testing.T) {
	if got := maskValue("nrk_abc", "nrk_"); got != "nrk_***" {
		t.Fatalf("maskValue = %q", got)
	}
	if got := maskValue("nrk_abcdefghij", "nrk_"); got != "nrk_abc...hij" {
		t.Fatalf("maskValue = %q", got)
	}
}

func TestRedactString(t *testing.T) {
	if got := RedactString("nrk_abcdefghij"); got == "nrk_abcdefghij" {
		t.Fatal("RedactString passed a secret through")
	}
	if got := RedactString("plain"); got != "plain" {
		t.Fatalf("RedactString rewrote a benign value: %q", got)
	}
}
