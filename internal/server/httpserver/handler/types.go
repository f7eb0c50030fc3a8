package handler

import (
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
)

// Response is the standard API response envelope. All JSON responses
// use this format; /metrics and the raw content/logo endpoints do not.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// MintRequest is the request body for POST /registry/tokens.
// Content is base64 in JSON; an empty content is a valid mint.
type MintRequest struct {
	To       string              `json:"to"`
	Metadata domain.MetadataDesc `json:"metadata,omitempty"`
	Content  []byte              `json:"content,omitempty"`
}

// MintResponse is the response body for both mint endpoints.
type MintResponse struct {
	TokenID uint64 `json:"token_id"`
	Txid    uint64 `json:"txid"`
}

// SimpleMintRequest is the request body for POST /registry/tokens/simple-mint.
type SimpleMintRequest struct {
	To       string `json:"to"`
	URI      string `json:"uri"`
	MimeType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

// TransferRequest is the request body for the transfer endpoints.
// Data is forwarded opaque to the recipient webhook on the notify
// variants.
type TransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Data []byte `json:"data,omitempty"`
}

// TxidResponse carries the transaction id of a committed mutation.
type TxidResponse struct {
	Txid uint64 `json:"txid"`
}

// ApproveRequest is the request body for POST /registry/tokens/{id}/approve.
type ApproveRequest struct {
	Delegate string `json:"delegate"`
}

// SetOperatorRequest is the request body for POST /registry/operators.
type SetOperatorRequest struct {
	Operator string `json:"operator"`
	Enabled  bool   `json:"enabled"`
}

// OwnerResponse is the response body for GET /registry/tokens/{id}/owner.
// A burned token reports an empty owner.
type OwnerResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	Burned  bool   `json:"burned"`
}

// BalanceResponse is the response body for GET /registry/owners/{identity}/balance.
type BalanceResponse struct {
	Identity string `json:"identity"`
	Balance  uint64 `json:"balance"`
}

// DigestResponse is the response body for GET /registry/tokens/{id}/digest.
type DigestResponse struct {
	TokenID uint64 `json:"token_id"`
	Digest  string `json:"digest"`
}

// WhitelistResponse is the response body for GET /registry/whitelist.
type WhitelistResponse struct {
	Whitelist []string `json:"whitelist"`
}

// CustodianResponse is the response body for GET /registry/custodians/{identity}.
type CustodianResponse struct {
	Identity    string `json:"identity"`
	IsCustodian bool   `json:"is_custodian"`
}

// OperatorResponse is the response body for GET /registry/operators/{operator}.
type OperatorResponse struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// SetNameRequest is the request body for POST /admin/v1/name.
type SetNameRequest struct {
	Name string `json:"name"`
}

// SetSymbolRequest is the request body for POST /admin/v1/symbol.
type SetSymbolRequest struct {
	Symbol string `json:"symbol"`
}

// SetLogoRequest is the request body for POST /admin/v1/logo.
type SetLogoRequest struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// SetCustodianRequest is the request body for POST /admin/v1/custodians.
type SetCustodianRequest struct {
	Custodian string `json:"custodian"`
	Grant     bool   `json:"grant"`
}
