package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/service"
)

// Handler routes registry API requests to the registry service.
type Handler struct {
	registry *service.RegistryService
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a Handler backed by the given registry service.
func New(registry *service.RegistryService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		registry: registry,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints (no auth required)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Public registry queries
	h.mux.HandleFunc("GET /registry/info", h.handleInfo)
	h.mux.HandleFunc("GET /registry/logo", h.handleLogo)
	h.mux.HandleFunc("GET /registry/whitelist", h.handleWhitelist)
	h.mux.HandleFunc("GET /registry/owners/{identity}/balance", h.handleBalanceOf)
	h.mux.HandleFunc("GET /registry/owners/{identity}/metadata", h.handleMetadataForUser)
	h.mux.HandleFunc("GET /registry/tokens/{id}/owner", h.handleOwnerOf)
	h.mux.HandleFunc("GET /registry/tokens/{id}/metadata", h.handleMetadata)
	h.mux.HandleFunc("GET /registry/tokens/{id}/digest", h.handleDigest)
	h.mux.HandleFunc("GET /registry/tokens/{id}/content", h.handleContent)
	h.mux.HandleFunc("GET /registry/custodians/{identity}", h.handleIsCustodian)

	// Caller-scoped query (auth required)
	h.mux.HandleFunc("GET /registry/operators/{operator}", h.handleIsApprovedForAll)

	// Token mutations (auth required)
	h.mux.HandleFunc("POST /registry/tokens", h.handleMint)
	h.mux.HandleFunc("POST /registry/tokens/simple-mint", h.handleSimpleMint)
	h.mux.HandleFunc("POST /registry/tokens/{id}/transfer", h.handleTransfer)
	h.mux.HandleFunc("POST /registry/tokens/{id}/safe-transfer", h.handleSafeTransfer)
	h.mux.HandleFunc("POST /registry/tokens/{id}/transfer-notify", h.handleTransferNotify)
	h.mux.HandleFunc("POST /registry/tokens/{id}/safe-transfer-notify", h.handleSafeTransferNotify)
	h.mux.HandleFunc("POST /registry/tokens/{id}/approve", h.handleApprove)
	h.mux.HandleFunc("POST /registry/tokens/{id}/burn", h.handleBurn)
	h.mux.HandleFunc("POST /registry/operators", h.handleSetOperator)

	// Admin endpoints (admin role required)
	h.mux.HandleFunc("POST /admin/v1/name", h.handleSetName)
	h.mux.HandleFunc("POST /admin/v1/symbol", h.handleSetSymbol)
	h.mux.HandleFunc("POST /admin/v1/logo", h.handleSetLogo)
	h.mux.HandleFunc("POST /admin/v1/custodians", h.handleSetCustodian)
	h.mux.HandleFunc("POST /admin/v1/snapshots", h.handleCreateSnapshot)
	h.mux.HandleFunc("GET /admin/v1/snapshots", h.handleListSnapshots)
}

// writeJSON writes a JSON response with the standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(w, r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(w, r)
	response := NewErrorResponse(requestID, code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID placed by the middleware.
func getRequestID(w http.ResponseWriter, r *http.Request) string {
	if reqID := w.Header().Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// caller returns the ledger identity of the authenticated API key.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	key := domain.APIKeyFromContext(r.Context())
	if key == nil || key.Identity.IsZero() {
		h.writeError(w, r, http.StatusUnauthorized, "NR-AUTH-4010", "api key not provided")
		return domain.Sentinel, false
	}
	return key.Identity, true
}

// tokenID parses the {id} path parameter.
func (h *Handler) tokenID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1001", "invalid token id")
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into dst.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "NR-SYS-4000", "invalid request body")
		return false
	}
	return true
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error())
		return
	}

	h.logger.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "NR-SYS-5000", "internal server error")
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"),
		strings.HasSuffix(code, "-4003"), strings.HasSuffix(code, "-4000"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"), strings.HasSuffix(code, "-4031"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "NR-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
