package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/server/config"
)

func testKeyring() *Keyring {
	return NewKeyring([]config.APIKeySpec{
		{ID: "user-key", Secret: "nrk_user_secret", Identity: "alice", Role: "user"},
		{ID: "admin-key", Secret: "nrk_admin_secret", Identity: "root", Role: "admin"},
		{ID: "scrape-key", Secret: "nrk_scrape_secret", Identity: "prom", Role: "metrics"},
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestKeyringLookup(t *testing.T) {
	k := testKeyring()

	key, ok := k.Lookup("user-key", "nrk_user_secret")
	if !ok {
		t.Fatal("Lookup with valid credentials failed")
	}
	if key.Identity != domain.Identity("alice") || key.Role != domain.RoleUser {
		t.Fatalf("Lookup = %+v", key)
	}

	if _, ok := k.Lookup("user-key", "wrong"); ok {
		t.Fatal("Lookup accepted wrong secret")
	}
	if _, ok := k.Lookup("no-such-key", "nrk_user_secret"); ok {
		t.Fatal("Lookup accepted unknown key id")
	}
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	h := Auth(testKeyring())(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/registry/tokens", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-AUTH-4010" {
		t.Fatalf("X-Error-Code = %q, want NR-AUTH-4010", got)
	}
}

func TestAuthRejectsInvalidSecret(t *testing.T) {
	h := Auth(testKeyring())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/registry/tokens", nil)
	req.Header.Set("X-API-Key-ID", "user-key")
	req.Header.Set("X-API-Key", "wrong")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-AUTH-4011" {
		t.Fatalf("X-Error-Code = %q, want NR-AUTH-4011", got)
	}
}

func TestAuthPlacesIdentityInContext(t *testing.T) {
	var seen *domain.APIKey
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Auth(testKeyring())(inner)

	req := httptest.NewRequest(http.MethodPost, "/registry/tokens", nil)
	req.Header.Set("X-API-Key-ID", "user-key")
	req.Header.Set("X-API-Key", "nrk_user_secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.Identity != domain.Identity("alice") {
		t.Fatalf("context key = %+v, want identity alice", seen)
	}
}

func TestAuthBearerFormat(t *testing.T) {
	h := Auth(testKeyring())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/registry/tokens", nil)
	req.Header.Set("Authorization", "Bearer user-key:nrk_user_secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthRejectsMetricsRole(t *testing.T) {
	h := Auth(testKeyring())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/registry/tokens", nil)
	req.Header.Set("X-API-Key-ID", "scrape-key")
	req.Header.Set("X-API-Key", "nrk_scrape_secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminAuthRequiresAdminRole(t *testing.T) {
	h := AdminAuth(testKeyring())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/name", nil)
	req.Header.Set("X-API-Key-ID", "user-key")
	req.Header.Set("X-API-Key", "nrk_user_secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-ADMIN-4030" {
		t.Fatalf("X-Error-Code = %q, want NR-ADMIN-4030", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/v1/name", nil)
	req.Header.Set("X-API-Key-ID", "admin-key")
	req.Header.Set("X-API-Key", "nrk_admin_secret")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}

func TestMetricsAuthAllowsMetricsAndAdmin(t *testing.T) {
	h := MetricsAuth(testKeyring(), true)(okHandler())

	for _, tc := range []struct {
		keyID, secret string
		want          int
	}{
		{"scrape-key", "nrk_scrape_secret", http.StatusOK},
		{"admin-key", "nrk_admin_secret", http.StatusOK},
		{"user-key", "nrk_user_secret", http.StatusForbidden},
		{"", "", http.StatusUnauthorized},
	} {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if tc.keyID != "" {
			req.Header.Set("X-API-Key-ID", tc.keyID)
			req.Header.Set("X-API-Key", tc.secret)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("key %q: status = %d, want %d", tc.keyID, rec.Code, tc.want)
		}
	}
}

func TestRequestIDGeneratedAndHonored(t *testing.T) {
	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestIDFromContext(r.Context())
	})
	h := RequestID()(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got == "" {
		t.Fatal("no request id generated")
	}
	if rec.Header().Get("X-Request-ID") != got {
		t.Fatal("response header does not match context request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-incoming")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "req-incoming" {
		t.Fatalf("request id = %q, want req-incoming", got)
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	h := RateLimit(1, 2)(okHandler())

	var rejected int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/registry/info", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	if rejected == 0 {
		t.Fatal("no request was rate limited")
	}

	// A different client IP gets its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/registry/info", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh client status = %d, want 200", rec.Code)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Recover(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registry/info", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "NR-SYS-5000" {
		t.Fatalf("X-Error-Code = %q, want NR-SYS-5000", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/registry/tokens", nil)
	req.Header.Set("Origin", "https://app.example.com")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/registry/tokens", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("disallowed origin got CORS headers")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	if got := getClientIP(req); got != "::1" {
		t.Fatalf("getClientIP = %q, want ::1", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := getClientIP(req); got != "203.0.113.7" {
		t.Fatalf("getClientIP with XFF = %q, want 203.0.113.7", got)
	}
}
