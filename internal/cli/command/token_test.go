package command

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestTokenCommandStructure(t *testing.T) {
	cmd := TokenCommand()

	if cmd.Name != "token" {
		t.Errorf("Name = %q, want token", cmd.Name)
	}
	if len(cmd.Aliases) == 0 || cmd.Aliases[0] != "tok" {
		t.Error("expected alias 'tok'")
	}

	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}
	for _, want := range []string{"mint", "simple-mint", "owner", "metadata", "digest", "content", "transfer", "approve", "burn"} {
		if !subNames[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}
}

func TestTokenMintPostsRecipient(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	var body map[string]any
	server.handle("/registry/tokens", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		envelopeResponse(w, http.StatusCreated, map[string]any{"token_id": 7, "txid": 12})
	})

	if err := runApp(server, "token", "mint", "--to", "alice"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if body["to"] != "alice" {
		t.Fatalf("body = %v", body)
	}
}

func TestTokenTransferVariantSelection(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	var gotPath string
	server.handle("/registry/tokens/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		envelopeResponse(w, http.StatusOK, map[string]any{"txid": 3})
	})

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"token", "transfer", "--from", "a", "--to", "b", "4"}, "/registry/tokens/4/transfer"},
		{[]string{"token", "transfer", "--from", "a", "--to", "b", "--safe", "4"}, "/registry/tokens/4/safe-transfer"},
		{[]string{"token", "transfer", "--from", "a", "--to", "b", "--notify", "4"}, "/registry/tokens/4/transfer-notify"},
		{[]string{"token", "transfer", "--from", "a", "--to", "b", "--safe", "--notify", "4"}, "/registry/tokens/4/safe-transfer-notify"},
	}
	for _, tc := range cases {
		if err := runApp(server, tc.args...); err != nil {
			t.Fatalf("run %v: %v", tc.args, err)
		}
		if gotPath != tc.want {
			t.Fatalf("path = %q, want %q", gotPath, tc.want)
		}
	}
}

func TestTokenBurnForceSkipsConfirmation(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	var called bool
	server.handle("/registry/tokens/2/burn", func(w http.ResponseWriter, r *http.Request) {
		called = true
		envelopeResponse(w, http.StatusOK, map[string]any{"txid": 9})
	})

	if err := runApp(server, "token", "burn", "--force", "2"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("burn endpoint not called")
	}
}

func TestTokenOwnerRequiresNumericID(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	err := runApp(server, "token", "owner", "abc")
	if err == nil {
		t.Fatal("expected error for non-numeric token id")
	}
}
