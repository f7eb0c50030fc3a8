package handler

import (
	"net/http"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
)

// defaultLogo is served from GET /registry/logo when no logo has been
// configured.
var defaultLogo = domain.Logo{
	ContentType: "image/svg+xml",
	Data:        []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64"><rect width="64" height="64" fill="#eee"/><text x="32" y="38" text-anchor="middle" font-size="14" fill="#888">NFT</text></svg>`),
}

// handleInfo handles GET /registry/info.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.registry.Info())
}

// handleLogo handles GET /registry/logo. The logo is served raw with
// its stored content type, not wrapped in the JSON envelope.
func (h *Handler) handleLogo(w http.ResponseWriter, r *http.Request) {
	logo, ok := h.registry.Logo()
	if !ok {
		logo = defaultLogo
	}

	w.Header().Set("Content-Type", logo.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(logo.Data)
}

// handleWhitelist handles GET /registry/whitelist.
func (h *Handler) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.Whitelist()
	list := make([]string, len(ids))
	for i, id := range ids {
		list[i] = id.String()
	}
	h.writeJSON(w, r, http.StatusOK, WhitelistResponse{Whitelist: list})
}

// handleBalanceOf handles GET /registry/owners/{identity}/balance.
func (h *Handler) handleBalanceOf(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if identity == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "identity is required")
		return
	}

	h.writeJSON(w, r, http.StatusOK, BalanceResponse{
		Identity: identity,
		Balance:  h.registry.BalanceOf(domain.Identity(identity)),
	})
}

// handleMetadataForUser handles GET /registry/owners/{identity}/metadata.
func (h *Handler) handleMetadataForUser(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if identity == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "identity is required")
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.registry.MetadataForUser(domain.Identity(identity)))
}

// handleOwnerOf handles GET /registry/tokens/{id}/owner.
func (h *Handler) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	owner, err := h.registry.OwnerOf(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, OwnerResponse{
		TokenID: id,
		Owner:   owner.String(),
		Burned:  owner.IsZero(),
	})
}

// handleMetadata handles GET /registry/tokens/{id}/metadata.
func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	md, err := h.registry.Metadata(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, md)
}

// handleDigest handles GET /registry/tokens/{id}/digest.
func (h *Handler) handleDigest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	d, err := h.registry.DigestOf(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, DigestResponse{TokenID: id, Digest: d.String()})
}

// handleContent handles GET /registry/tokens/{id}/content. The blob
// is served raw; tokens minted without content return 204.
func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	blob, err := h.registry.Content(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if len(blob) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// handleIsCustodian handles GET /registry/custodians/{identity}.
func (h *Handler) handleIsCustodian(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")
	if identity == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "identity is required")
		return
	}

	h.writeJSON(w, r, http.StatusOK, CustodianResponse{
		Identity:    identity,
		IsCustodian: h.registry.IsCustodian(domain.Identity(identity)),
	})
}

// handleIsApprovedForAll handles GET /registry/operators/{operator}.
// The check is scoped to the authenticated caller.
func (h *Handler) handleIsApprovedForAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	operator := r.PathValue("operator")
	if operator == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "operator is required")
		return
	}

	h.writeJSON(w, r, http.StatusOK, OperatorResponse{
		Operator: operator,
		Approved: h.registry.IsApprovedForAll(caller, domain.Identity(operator)),
	})
}
