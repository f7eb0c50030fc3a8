package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/internal/storage"
	"github.com/mintworks/nftregistry-go/internal/storage/snapshot"
	"github.com/mintworks/nftregistry-go/internal/telemetry/logger"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// RegistryService orchestrates registry operations on top of the
// storage engine.
type RegistryService struct {
	engine   *storage.Engine
	notifier *Notifier
	logger   *slog.Logger

	// wg tracks in-flight notification goroutines so Close can
	// drain them.
	wg sync.WaitGroup
}

// NewRegistryService creates a registry service. The notifier may be
// nil when transfer notifications are disabled.
func NewRegistryService(engine *storage.Engine, notifier *Notifier, logger *slog.Logger) *RegistryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryService{
		engine:   engine,
		notifier: notifier,
		logger:   logger,
	}
}

// Close waits for in-flight notifications to drain.
func (s *RegistryService) Close() {
	s.wg.Wait()
}

// log returns the service logger enriched with the request id carried
// in ctx, when one is present.
func (s *RegistryService) log(ctx context.Context) *slog.Logger {
	if reqID := logger.RequestIDFromContext(ctx); reqID != "" {
		return s.logger.With("request_id", reqID)
	}
	return s.logger
}

// MintRequest contains parameters for an administrative mint.
type MintRequest struct {
	Caller   domain.Identity
	To       domain.Identity
	Metadata domain.MetadataDesc
	Content  []byte
}

// Mint creates a token with explicit metadata and content. The
// operation is intentionally open to any authenticated caller.
func (s *RegistryService) Mint(ctx context.Context, req *MintRequest) (*storage.MintResult, error) {
	if req.To.IsZero() {
		return nil, domain.ErrMissingArgument.WithDetails("to is required")
	}

	res, err := s.engine.Mint(ctx, req.Caller, req.To, req.Metadata, req.Content)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("token minted",
		"token_id", res.TokenID,
		"txid", res.Txid,
		"to", req.To.String(),
		"content_size", len(req.Content))
	return res, nil
}

// SimpleMintRequest contains parameters for the public self-mint path.
type SimpleMintRequest struct {
	Caller   domain.Identity
	To       domain.Identity
	URI      string
	MimeType string
	Name     string
	Origin   string
}

// SimpleMint mints a token through the mint-window policy: valid URI,
// current time inside the window, recipient on the whitelist.
func (s *RegistryService) SimpleMint(ctx context.Context, req *SimpleMintRequest) (*storage.MintResult, error) {
	if req.To.IsZero() {
		return nil, domain.ErrMissingArgument.WithDetails("to is required")
	}

	res, err := s.engine.SimpleMint(ctx, req.Caller, req.To, req.URI, req.MimeType, req.Name, req.Origin)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("token self-minted",
		"token_id", res.TokenID,
		"txid", res.Txid,
		"to", req.To.String())
	return res, nil
}

// TransferRequest contains parameters for a transfer.
type TransferRequest struct {
	Caller  domain.Identity
	From    domain.Identity
	To      domain.Identity
	TokenID uint64

	// Safe rejects the zero identity as destination.
	Safe bool

	// Notify dispatches a webhook to the recipient after commit.
	Notify bool

	// Data is opaque payload forwarded with the notification.
	Data []byte
}

// TransferResponse contains the result of a transfer.
type TransferResponse struct {
	Txid uint64 `json:"txid"`
}

// Transfer moves a token. When req.Notify is set and the transfer
// committed, the recipient's webhook is invoked on a goroutine; its
// outcome cannot affect the returned result.
func (s *RegistryService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	txid, err := s.engine.Transfer(ctx, req.Caller, req.From, req.To, req.TokenID, req.Safe)
	if err != nil {
		return nil, err
	}

	if req.Notify && s.notifier != nil {
		caller, from, to, tokenID, data := req.Caller, req.From, req.To, req.TokenID, req.Data
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.notifier.Notify(caller, from, to, tokenID, data)
		}()
	}

	return &TransferResponse{Txid: txid}, nil
}

// ApproveRequest contains parameters for a single-token approval.
type ApproveRequest struct {
	Caller   domain.Identity
	Delegate domain.Identity
	TokenID  uint64
}

// Approve grants a delegate on one token.
func (s *RegistryService) Approve(ctx context.Context, req *ApproveRequest) (*TransferResponse, error) {
	txid, err := s.engine.Approve(ctx, req.Caller, req.Delegate, req.TokenID)
	if err != nil {
		return nil, err
	}
	return &TransferResponse{Txid: txid}, nil
}

// SetApprovalRequest contains parameters for an operator grant.
type SetApprovalRequest struct {
	Caller   domain.Identity
	Operator domain.Identity
	Enabled  bool
}

// SetApprovalForAll grants or revokes an operator over all of the
// caller's tokens.
func (s *RegistryService) SetApprovalForAll(ctx context.Context, req *SetApprovalRequest) (*TransferResponse, error) {
	txid, err := s.engine.SetApprovalForAll(ctx, req.Caller, req.Operator, req.Enabled)
	if err != nil {
		return nil, err
	}
	return &TransferResponse{Txid: txid}, nil
}

// BurnRequest contains parameters for a burn.
type BurnRequest struct {
	Caller  domain.Identity
	TokenID uint64
}

// Burn transfers a token to the zero identity. Owner only.
func (s *RegistryService) Burn(ctx context.Context, req *BurnRequest) (*TransferResponse, error) {
	txid, err := s.engine.Burn(ctx, req.Caller, req.TokenID)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("token burned", "token_id", req.TokenID, "txid", txid)
	return &TransferResponse{Txid: txid}, nil
}

// SetNameRequest renames the collection.
type SetNameRequest struct {
	Caller domain.Identity
	Name   string
}

// SetName sets the collection name. Custodian only, no txid.
func (s *RegistryService) SetName(ctx context.Context, req *SetNameRequest) error {
	if req.Name == "" {
		return domain.ErrMissingArgument.WithDetails("name is required")
	}
	return s.engine.SetName(ctx, req.Caller, req.Name)
}

// SetSymbolRequest changes the collection symbol.
type SetSymbolRequest struct {
	Caller domain.Identity
	Symbol string
}

// SetSymbol sets the collection symbol. Custodian only, no txid.
func (s *RegistryService) SetSymbol(ctx context.Context, req *SetSymbolRequest) error {
	if req.Symbol == "" {
		return domain.ErrMissingArgument.WithDetails("symbol is required")
	}
	return s.engine.SetSymbol(ctx, req.Caller, req.Symbol)
}

// SetLogoRequest replaces the collection logo.
type SetLogoRequest struct {
	Caller domain.Identity
	Logo   *domain.Logo
}

// SetLogo sets the collection logo. Custodian only, no txid.
func (s *RegistryService) SetLogo(ctx context.Context, req *SetLogoRequest) error {
	if req.Logo == nil || req.Logo.IsZero() {
		return domain.ErrMissingArgument.WithDetails("logo is required")
	}
	return s.engine.SetLogo(ctx, req.Caller, req.Logo)
}

// SetCustodianRequest grants or revokes custodian status.
type SetCustodianRequest struct {
	Caller    domain.Identity
	Custodian domain.Identity
	Grant     bool
}

// SetCustodian grants or revokes a custodian. Custodian only, no txid.
func (s *RegistryService) SetCustodian(ctx context.Context, req *SetCustodianRequest) error {
	return s.engine.SetCustodian(ctx, req.Caller, req.Custodian, req.Grant)
}

// RegistryInfo is the public summary of the registry.
type RegistryInfo struct {
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	TotalSupply  uint64   `json:"total_supply"`
	BeginDate    string   `json:"begin_date"`
	EndDate      string   `json:"end_date"`
	TotalLimit   string   `json:"total_limit,omitempty"`
	Capabilities []string `json:"capabilities"`
}

// Info returns the public registry summary.
func (s *RegistryService) Info() *RegistryInfo {
	w := s.engine.Window()
	return &RegistryInfo{
		Name:         s.engine.Name(),
		Symbol:       s.engine.Symbol(),
		TotalSupply:  s.engine.TotalSupply(),
		BeginDate:    w.BeginDate,
		EndDate:      w.EndDate,
		TotalLimit:   s.engine.TotalLimit(),
		Capabilities: ledger.Capabilities,
	}
}

// Logo returns the collection logo, if set.
func (s *RegistryService) Logo() (domain.Logo, bool) {
	return s.engine.Logo()
}

// Whitelist returns the self-mint whitelist.
func (s *RegistryService) Whitelist() []domain.Identity {
	return s.engine.Whitelist()
}

// OwnerOf returns the owner of a token.
func (s *RegistryService) OwnerOf(tokenID uint64) (domain.Identity, error) {
	return s.engine.OwnerOf(tokenID)
}

// BalanceOf counts the unburned tokens owned by an identity.
func (s *RegistryService) BalanceOf(user domain.Identity) uint64 {
	return s.engine.BalanceOf(user)
}

// Metadata returns a token's metadata.
func (s *RegistryService) Metadata(tokenID uint64) (domain.MetadataDesc, error) {
	return s.engine.Metadata(tokenID)
}

// MetadataForUser returns metadata of all tokens owned by an identity.
func (s *RegistryService) MetadataForUser(user domain.Identity) []ledger.UserMetadata {
	return s.engine.MetadataForUser(user)
}

// DigestOf returns the content-hash index entry for a token.
func (s *RegistryService) DigestOf(tokenID uint64) (digest.Digest, error) {
	d, ok := s.engine.DigestOf(tokenID)
	if !ok {
		return digest.Digest{}, domain.ErrInvalidTokenID
	}
	return d, nil
}

// Content returns a token's content blob.
func (s *RegistryService) Content(ctx context.Context, tokenID uint64) ([]byte, error) {
	return s.engine.Content(ctx, tokenID)
}

// IsCustodian reports whether an identity is a custodian.
func (s *RegistryService) IsCustodian(id domain.Identity) bool {
	return s.engine.IsCustodian(id)
}

// IsApprovedForAll reports whether operator may act for caller.
func (s *RegistryService) IsApprovedForAll(caller, operator domain.Identity) bool {
	return s.engine.IsApprovedForAll(caller, operator)
}

// TriggerSnapshot creates a snapshot on demand.
func (s *RegistryService) TriggerSnapshot(ctx context.Context) (*snapshot.Info, error) {
	return s.engine.TriggerSnapshot(ctx)
}

// Snapshots lists available snapshots, newest first.
func (s *RegistryService) Snapshots() ([]*snapshot.Info, error) {
	return s.engine.Snapshots()
}
