package handler

import (
	"net/http"
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/service"
)

// handleSetName handles POST /admin/v1/name.
func (h *Handler) handleSetName(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetNameRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.registry.SetName(r.Context(), &service.SetNameRequest{
		Caller: caller,
		Name:   req.Name,
	}); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// handleSetSymbol handles POST /admin/v1/symbol.
func (h *Handler) handleSetSymbol(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetSymbolRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.registry.SetSymbol(r.Context(), &service.SetSymbolRequest{
		Caller: caller,
		Symbol: req.Symbol,
	}); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// handleSetLogo handles POST /admin/v1/logo.
func (h *Handler) handleSetLogo(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetLogoRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.registry.SetLogo(r.Context(), &service.SetLogoRequest{
		Caller: caller,
		Logo: &domain.Logo{
			ContentType: req.ContentType,
			Data:        req.Data,
		},
	}); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// handleSetCustodian handles POST /admin/v1/custodians.
func (h *Handler) handleSetCustodian(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetCustodianRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Custodian == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "custodian is required")
		return
	}

	if err := h.registry.SetCustodian(r.Context(), &service.SetCustodianRequest{
		Caller:    caller,
		Custodian: domain.Identity(req.Custodian),
		Grant:     req.Grant,
	}); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// handleCreateSnapshot handles POST /admin/v1/snapshots.
func (h *Handler) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := h.registry.TriggerSnapshot(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"snapshot":     info,
		"triggered_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListSnapshots handles GET /admin/v1/snapshots.
func (h *Handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.registry.Snapshots()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{"snapshots": infos})
}
