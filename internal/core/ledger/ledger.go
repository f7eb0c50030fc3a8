package ledger

import (
	"net/url"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/pkg/cmap"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// Capability names reported by the registry info endpoint.
var Capabilities = []string{"approval", "mint", "burn", "transfer-notification"}

// Genesis carries the boot-time registry parameters. Whitelist,
// window, and total limit are config-owned and immutable at runtime;
// name, symbol, logo, and custodians are starting values that
// administrative operations may change.
type Genesis struct {
	Name       string
	Symbol     string
	Logo       domain.Logo
	Custodians []domain.Identity
	Whitelist  []domain.Identity
	Window     MintWindow
	TotalLimit string
}

// Ledger is the authoritative registry state. Token ids are indexes
// into the token slice, allocated sequentially at mint. Not safe for
// concurrent use except the content-hash index.
type Ledger struct {
	tokens     []*domain.Token
	custodians map[domain.Identity]struct{}
	operators  map[domain.Identity]map[domain.Identity]struct{}
	whitelist  map[domain.Identity]struct{}

	name       string
	symbol     string
	logo       domain.Logo
	window     MintWindow
	totalLimit string
	txid       uint64

	hashIndex *cmap.Map[uint64, digest.Digest]
}

// New creates a ledger from genesis parameters.
func New(g Genesis) *Ledger {
	l := &Ledger{
		custodians: make(map[domain.Identity]struct{}, len(g.Custodians)),
		operators:  make(map[domain.Identity]map[domain.Identity]struct{}),
		whitelist:  make(map[domain.Identity]struct{}, len(g.Whitelist)),
		name:       g.Name,
		symbol:     g.Symbol,
		logo:       g.Logo,
		window:     g.Window,
		totalLimit: g.TotalLimit,
		hashIndex:  cmap.New[uint64, digest.Digest](),
	}
	for _, c := range g.Custodians {
		if !c.IsZero() {
			l.custodians[c] = struct{}{}
		}
	}
	for _, w := range g.Whitelist {
		if !w.IsZero() {
			l.whitelist[w] = struct{}{}
		}
	}
	return l
}

func (l *Ledger) token(id uint64) (*domain.Token, error) {
	if id >= uint64(len(l.tokens)) {
		return nil, domain.ErrInvalidTokenID
	}
	return l.tokens[id], nil
}

func (l *Ledger) isCustodian(id domain.Identity) bool {
	_, ok := l.custodians[id]
	return ok
}

func (l *Ledger) hasOperator(owner, operator domain.Identity) bool {
	set, ok := l.operators[owner]
	if !ok {
		return false
	}
	_, ok = set[operator]
	return ok
}

// authorized reports whether caller may act on tok. The operator
// lookup is keyed by the caller-supplied subject identity (the stated
// source of a transfer, the delegate of an approval), not the owner.
func (l *Ledger) authorized(caller domain.Identity, tok *domain.Token, subject domain.Identity) bool {
	if tok.Owner == caller {
		return true
	}
	if !tok.Approved.IsZero() && tok.Approved == caller {
		return true
	}
	if l.hasOperator(subject, caller) {
		return true
	}
	return l.isCustodian(caller)
}

// ----------------------------------------------------------------------------
// Prepare: checks and record construction, no state mutation.
// ----------------------------------------------------------------------------

// PrepareMint admits a mint of a new token to any recipient. Minting
// is intentionally unrestricted beyond metadata shape and content
// size limits.
func (l *Ledger) PrepareMint(caller, to domain.Identity, metadata domain.MetadataDesc, content []byte, nowMilli int64) (*Record, error) {
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	if int64(len(content)) > domain.MaxContentSize {
		return nil, domain.ErrInvalidArgument.WithDetails("content too large")
	}
	return &Record{
		Op:            OpMint,
		Txid:          l.txid,
		Caller:        caller,
		TokenID:       uint64(len(l.tokens)),
		To:            to,
		Metadata:      metadata,
		ContentSize:   int64(len(content)),
		ContentDigest: digest.Sum(content),
		MintedAt:      nowMilli,
	}, nil
}

// PrepareSimpleMint admits a public self-mint. Checks run in order:
// URI acceptability, mint window, whitelist membership. A bad URI and
// a missing whitelist entry are deliberately the same error kind.
func (l *Ledger) PrepareSimpleMint(caller, to domain.Identity, uri, mimeType, name, origin string, nowMilli int64) (*Record, error) {
	if uri == "" {
		return nil, domain.ErrMintNotAllowed
	}
	if parsed, err := url.Parse(uri); err != nil || !parsed.IsAbs() {
		return nil, domain.ErrMintNotAllowed
	}
	if !l.window.Contains(nowMilli) {
		return nil, domain.ErrOutsideMintWindow
	}
	if _, ok := l.whitelist[to]; !ok {
		return nil, domain.ErrMintNotAllowed
	}

	metadata := domain.MetadataDesc{{
		Purpose: domain.PurposeRendered,
		KeyVal: []domain.MetadataKeyVal{
			{Key: "locationType", Val: domain.NatValue(domain.ValueNat8, 3)},
			{Key: "location", Val: domain.TextValue(uri)},
			{Key: "contentHash", Val: domain.BlobValue(digest.SumString(uri).Bytes())},
			{Key: "contentType", Val: domain.TextValue(mimeType)},
			{Key: "name", Val: domain.TextValue(name)},
			{Key: "origin", Val: domain.TextValue(origin)},
		},
	}}
	rec, err := l.PrepareMint(caller, to, metadata, nil, nowMilli)
	if err != nil {
		return nil, err
	}
	// The public path carries no blob; the hash index anchors the URI
	// string instead, matching the contentHash metadata entry.
	rec.ContentDigest = digest.SumString(uri)
	return rec, nil
}

// PrepareTransfer admits a transfer of tokenID from the stated source
// to the destination. safe additionally rejects the sentinel
// destination before any other check.
func (l *Ledger) PrepareTransfer(caller, from, to domain.Identity, tokenID uint64, safe bool) (*Record, error) {
	if safe && to.IsZero() {
		return nil, domain.ErrZeroIdentity
	}
	tok, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	if !l.authorized(caller, tok, from) {
		return nil, domain.ErrUnauthorized
	}
	if tok.Owner != from {
		return nil, domain.ErrOwnershipMismatch
	}
	return &Record{
		Op:      OpTransfer,
		Txid:    l.txid,
		Caller:  caller,
		TokenID: tokenID,
		From:    from,
		To:      to,
	}, nil
}

// PrepareApprove admits setting the per-token delegate. The operator
// authorization leg is keyed by the incoming delegate identity.
func (l *Ledger) PrepareApprove(caller, delegate domain.Identity, tokenID uint64) (*Record, error) {
	tok, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	if !l.authorized(caller, tok, delegate) {
		return nil, domain.ErrUnauthorized
	}
	return &Record{
		Op:       OpApprove,
		Txid:     l.txid,
		Caller:   caller,
		TokenID:  tokenID,
		Delegate: delegate,
	}, nil
}

// PrepareSetOperator admits an operator grant or revocation on the
// caller's own set. It never fails: a self-targeted change is a
// no-op, the sentinel operator with enabled=true is a refused mass
// grant, with enabled=false it clears the whole set. All variants
// consume a transaction id.
func (l *Ledger) PrepareSetOperator(caller, operator domain.Identity, enabled bool) (*Record, error) {
	return &Record{
		Op:       OpSetOperator,
		Txid:     l.txid,
		Caller:   caller,
		Operator: operator,
		Enabled:  enabled,
	}, nil
}

// PrepareBurn admits a burn. Strictly owner-only: approval, operator
// status, and custodianship do not qualify.
func (l *Ledger) PrepareBurn(caller domain.Identity, tokenID uint64) (*Record, error) {
	tok, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	if tok.Owner != caller {
		return nil, domain.ErrUnauthorized
	}
	return &Record{
		Op:      OpBurn,
		Txid:    l.txid,
		Caller:  caller,
		TokenID: tokenID,
	}, nil
}

// PrepareSetName admits renaming the registry (custodian-only, no
// transaction id).
func (l *Ledger) PrepareSetName(caller domain.Identity, name string) (*Record, error) {
	if !l.isCustodian(caller) {
		return nil, domain.ErrUnauthorized
	}
	return &Record{Op: OpSetName, Caller: caller, Name: name}, nil
}

// PrepareSetSymbol admits changing the registry symbol.
func (l *Ledger) PrepareSetSymbol(caller domain.Identity, symbol string) (*Record, error) {
	if !l.isCustodian(caller) {
		return nil, domain.ErrUnauthorized
	}
	return &Record{Op: OpSetSymbol, Caller: caller, Symbol: symbol}, nil
}

// PrepareSetLogo admits replacing the registry logo. A nil logo
// clears it back to the built-in default.
func (l *Ledger) PrepareSetLogo(caller domain.Identity, logo *domain.Logo) (*Record, error) {
	if !l.isCustodian(caller) {
		return nil, domain.ErrUnauthorized
	}
	return &Record{Op: OpSetLogo, Caller: caller, Logo: logo}, nil
}

// PrepareSetCustodian admits granting or revoking custodianship.
func (l *Ledger) PrepareSetCustodian(caller, custodian domain.Identity, grant bool) (*Record, error) {
	if !l.isCustodian(caller) {
		return nil, domain.ErrUnauthorized
	}
	if custodian.IsZero() {
		return nil, domain.ErrZeroIdentity
	}
	return &Record{Op: OpSetCustodian, Caller: caller, Custodian: custodian, Grant: grant}, nil
}

// ----------------------------------------------------------------------------
// Apply: unconditional state mutation, shared by commit and replay.
// ----------------------------------------------------------------------------

// Apply mutates state according to a prepared or replayed record.
// Sequenced records commit their transaction id by advancing the
// counter past it.
func (l *Ledger) Apply(rec *Record) {
	switch rec.Op {
	case OpMint:
		tok := &domain.Token{
			ID:            rec.TokenID,
			Owner:         rec.To,
			Metadata:      rec.Metadata,
			ContentSize:   rec.ContentSize,
			ContentDigest: rec.ContentDigest,
			MintedAt:      rec.MintedAt,
		}
		l.tokens = append(l.tokens, tok)
		l.hashIndex.SetIfAbsent(rec.TokenID, rec.ContentDigest)

	case OpTransfer:
		tok := l.tokens[rec.TokenID]
		tok.Approved = domain.Sentinel
		tok.Owner = rec.To

	case OpApprove:
		l.tokens[rec.TokenID].Approved = rec.Delegate

	case OpSetOperator:
		l.applySetOperator(rec)

	case OpBurn:
		// Burn keeps the delegate in place; only ownership moves to
		// the sentinel.
		l.tokens[rec.TokenID].Owner = domain.Sentinel

	case OpSetName:
		l.name = rec.Name

	case OpSetSymbol:
		l.symbol = rec.Symbol

	case OpSetLogo:
		if rec.Logo == nil {
			l.logo = domain.Logo{}
		} else {
			l.logo = *rec.Logo
		}

	case OpSetCustodian:
		if rec.Grant {
			l.custodians[rec.Custodian] = struct{}{}
		} else {
			delete(l.custodians, rec.Custodian)
		}
	}

	if rec.Op.Sequenced() {
		l.txid = rec.Txid + 1
	}
}

func (l *Ledger) applySetOperator(rec *Record) {
	if rec.Operator == rec.Caller {
		return
	}
	set, ok := l.operators[rec.Caller]
	if !ok {
		set = make(map[domain.Identity]struct{})
		l.operators[rec.Caller] = set
	}
	if rec.Operator.IsZero() {
		if !rec.Enabled {
			clear(set)
		}
		// Enabling the sentinel would grant everyone; refused.
		return
	}
	if rec.Enabled {
		set[rec.Operator] = struct{}{}
	} else {
		delete(set, rec.Operator)
	}
}
