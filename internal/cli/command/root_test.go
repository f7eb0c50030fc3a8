package command

import (
	"net/http"
	"strings"
	"testing"
)

func TestAppStructure(t *testing.T) {
	app := App()

	if app.Name != "nftreg-cli" {
		t.Errorf("Name = %q, want nftreg-cli", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"info", "token", "owner", "operator", "admin"} {
		if !names[want] {
			t.Errorf("missing command: %s", want)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range globalFlags() {
		flagNames[f.Names()[0]] = true
	}

	for _, want := range []string{"server", "api-key-id", "api-key", "output"} {
		if !flagNames[want] {
			t.Errorf("missing global flag: %s", want)
		}
	}
}

func TestCredentialsAttachedToRequests(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	var gotKeyID, gotKey string
	server.handle("/registry/info", func(w http.ResponseWriter, r *http.Request) {
		gotKeyID = r.Header.Get("X-API-Key-ID")
		gotKey = r.Header.Get("X-API-Key")
		envelopeResponse(w, http.StatusOK, map[string]any{"name": "activity"})
	})

	err := runApp(server, "--api-key-id", "cli-key", "--api-key", "nrk_cli_secret", "info")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if gotKeyID != "cli-key" || gotKey != "nrk_cli_secret" {
		t.Fatalf("credentials = %q/%q", gotKeyID, gotKey)
	}
}

func TestServerErrorSurfacesCode(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/registry/tokens/5/owner", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusNotFound, "NR-LEDG-4040", "invalid token id")
	})

	err := runApp(server, "token", "owner", "5")
	if err == nil {
		t.Fatal("expected error for unknown token")
	}
	if !strings.Contains(err.Error(), "NR-LEDG-4040") {
		t.Fatalf("error = %v, want NR-LEDG-4040 code", err)
	}
}
