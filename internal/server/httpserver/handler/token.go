package handler

import (
	"net/http"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/service"
)

// handleMint handles POST /registry/tokens.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req MintRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	res, err := h.registry.Mint(r.Context(), &service.MintRequest{
		Caller:   caller,
		To:       domain.Identity(req.To),
		Metadata: req.Metadata,
		Content:  req.Content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, MintResponse{
		TokenID: res.TokenID,
		Txid:    res.Txid,
	})
}

// handleSimpleMint handles POST /registry/tokens/simple-mint.
func (h *Handler) handleSimpleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SimpleMintRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	res, err := h.registry.SimpleMint(r.Context(), &service.SimpleMintRequest{
		Caller:   caller,
		To:       domain.Identity(req.To),
		URI:      req.URI,
		MimeType: req.MimeType,
		Name:     req.Name,
		Origin:   req.Origin,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, MintResponse{
		TokenID: res.TokenID,
		Txid:    res.Txid,
	})
}

// transfer implements the four transfer variants.
func (h *Handler) transfer(w http.ResponseWriter, r *http.Request, safe, notify bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp, err := h.registry.Transfer(r.Context(), &service.TransferRequest{
		Caller:  caller,
		From:    domain.Identity(req.From),
		To:      domain.Identity(req.To),
		TokenID: id,
		Safe:    safe,
		Notify:  notify,
		Data:    req.Data,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, TxidResponse{Txid: resp.Txid})
}

// handleTransfer handles POST /registry/tokens/{id}/transfer.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, false, false)
}

// handleSafeTransfer handles POST /registry/tokens/{id}/safe-transfer.
func (h *Handler) handleSafeTransfer(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, true, false)
}

// handleTransferNotify handles POST /registry/tokens/{id}/transfer-notify.
func (h *Handler) handleTransferNotify(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, false, true)
}

// handleSafeTransferNotify handles POST /registry/tokens/{id}/safe-transfer-notify.
func (h *Handler) handleSafeTransferNotify(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, true, true)
}

// handleApprove handles POST /registry/tokens/{id}/approve.
func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Delegate == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "delegate is required")
		return
	}

	resp, err := h.registry.Approve(r.Context(), &service.ApproveRequest{
		Caller:   caller,
		Delegate: domain.Identity(req.Delegate),
		TokenID:  id,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, TxidResponse{Txid: resp.Txid})
}

// handleBurn handles POST /registry/tokens/{id}/burn.
func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	resp, err := h.registry.Burn(r.Context(), &service.BurnRequest{
		Caller:  caller,
		TokenID: id,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, TxidResponse{Txid: resp.Txid})
}

// handleSetOperator handles POST /registry/operators.
func (h *Handler) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req SetOperatorRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Operator == "" {
		h.writeError(w, r, http.StatusBadRequest, "NR-ARG-1002", "operator is required")
		return
	}

	resp, err := h.registry.SetApprovalForAll(r.Context(), &service.SetApprovalRequest{
		Caller:   caller,
		Operator: domain.Identity(req.Operator),
		Enabled:  req.Enabled,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, TxidResponse{Txid: resp.Txid})
}
