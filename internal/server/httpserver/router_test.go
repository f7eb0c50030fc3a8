package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/internal/core/service"
	"github.com/mintworks/nftregistry-go/internal/storage"
	"github.com/mintworks/nftregistry-go/internal/storage/memory"
	"github.com/mintworks/nftregistry-go/internal/telemetry/metric"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	w, err := ledger.ParseMintWindow("2024-01-01 00:00:00", "2030-12-31 23:59:59")
	if err != nil {
		t.Fatalf("ParseMintWindow: %v", err)
	}

	cfg := storage.DefaultConfig(t.TempDir())
	cfg.Genesis = ledger.Genesis{
		Name:       "activity",
		Symbol:     "ACT",
		Custodians: []domain.Identity{"root"},
		Whitelist:  []domain.Identity{"alice"},
		Window:     w,
	}
	cfg.Content = memory.New()

	engine, err := storage.New(cfg)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if err := engine.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	svc := service.NewRegistryService(engine, nil, testLogger())
	t.Cleanup(svc.Close)

	return NewRouter(&RouterConfig{
		Registry:            svc,
		Keyring:             testKeyring(),
		Logger:              testLogger(),
		Metrics:             metric.New(),
		MetricsAuthRequired: true,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, keyID, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if keyID != "" {
		req.Header.Set("X-API-Key-ID", keyID)
		req.Header.Set("X-API-Key", secret)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Code string         `json:"code"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if envelope.Code != "OK" {
		t.Fatalf("envelope code = %q (%s)", envelope.Code, rec.Body.String())
	}
	return envelope.Data
}

func TestInfoIsPublic(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/registry/info", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	data := dataField(t, rec)
	if data["name"] != "activity" || data["symbol"] != "ACT" {
		t.Fatalf("info = %v", data)
	}
}

func TestMintRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/registry/tokens", "", "", map[string]any{"to": "alice"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMintTransferAndQueries(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/registry/tokens", "user-key", "nrk_user_secret", map[string]any{
		"to":      "alice",
		"content": []byte("payload"),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("mint status = %d (%s)", rec.Code, rec.Body.String())
	}
	data := dataField(t, rec)
	if data["token_id"] != float64(0) || data["txid"] != float64(0) {
		t.Fatalf("mint data = %v", data)
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/tokens/0/owner", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d", rec.Code)
	}
	if data = dataField(t, rec); data["owner"] != "alice" {
		t.Fatalf("owner = %v", data)
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/tokens/0/content", "", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "payload" {
		t.Fatalf("content = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/tokens/0/digest", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("digest status = %d", rec.Code)
	}
	if data = dataField(t, rec); data["digest"] == "" {
		t.Fatalf("digest data = %v", data)
	}

	// Transfer by owner. The path caller is the user key's identity.
	rec = doJSON(t, router, http.MethodPost, "/registry/tokens/0/transfer", "user-key", "nrk_user_secret", map[string]any{
		"from": "alice",
		"to":   "bob",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer status = %d (%s)", rec.Code, rec.Body.String())
	}
	if data = dataField(t, rec); data["txid"] != float64(1) {
		t.Fatalf("transfer data = %v", data)
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/owners/bob/balance", "", "", nil)
	if data = dataField(t, rec); data["balance"] != float64(1) {
		t.Fatalf("balance data = %v", data)
	}
}

func TestInvalidTokenIDPathParam(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/registry/tokens/abc/owner", "", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-ARG-1001" {
		t.Fatalf("X-Error-Code = %q, want NR-ARG-1001", got)
	}
}

func TestUnknownTokenIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/registry/tokens/99/owner", "", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-LEDG-4040" {
		t.Fatalf("X-Error-Code = %q, want NR-LEDG-4040", got)
	}
}

func TestAdminSurfaceRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/admin/v1/name", "user-key", "nrk_user_secret", map[string]any{"name": "renamed"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user key status = %d, want 403", rec.Code)
	}

	// Admin role passes the transport gate, but the ledger still
	// rejects non-custodian callers. The admin key maps to "root",
	// which is a custodian here.
	rec = doJSON(t, router, http.MethodPost, "/admin/v1/name", "admin-key", "nrk_admin_secret", map[string]any{"name": "renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin key status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/info", "", "", nil)
	if data := dataField(t, rec); data["name"] != "renamed" {
		t.Fatalf("info after rename = %v", data)
	}
}

func TestCustodianCheckStaysInLedger(t *testing.T) {
	router := newTestRouter(t)

	// The admin role only opens the transport surface. Once the
	// admin key's identity loses custodianship, the ledger rejects
	// the operation.
	rec := doJSON(t, router, http.MethodPost, "/admin/v1/custodians", "admin-key", "nrk_admin_secret", map[string]any{
		"custodian": "root",
		"grant":     false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke custodian status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/admin/v1/name", "admin-key", "nrk_admin_secret", map[string]any{"name": "x"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ex-custodian status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-LEDG-4030" {
		t.Fatalf("X-Error-Code = %q, want NR-LEDG-4030", got)
	}
}

func TestMetricsEndpointGated(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/metrics", "scrape-key", "nrk_scrape_secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics key status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("nftreg_")) {
		t.Fatal("metrics exposition missing nftreg_ families")
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/ready"} {
		rec := doJSON(t, router, http.MethodGet, path, "", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestOperatorQueryIsCallerScoped(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/registry/operators/bob", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/registry/operators", "user-key", "nrk_user_secret", map[string]any{
		"operator": "bob",
		"enabled":  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set operator status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/registry/operators/bob", "user-key", "nrk_user_secret", nil)
	if data := dataField(t, rec); data["approved"] != true {
		t.Fatalf("operator data = %v", data)
	}
}
