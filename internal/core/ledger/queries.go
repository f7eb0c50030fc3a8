package ledger

import (
	"sort"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// UserMetadata pairs a token id with its metadata for per-owner
// listings.
type UserMetadata struct {
	TokenID  uint64              `json:"token_id"`
	Metadata domain.MetadataDesc `json:"metadata"`
}

// OwnerOf returns the current holder of tokenID. Burned tokens
// report the sentinel identity.
func (l *Ledger) OwnerOf(tokenID uint64) (domain.Identity, error) {
	tok, err := l.token(tokenID)
	if err != nil {
		return domain.Sentinel, err
	}
	return tok.Owner, nil
}

// BalanceOf counts the tokens currently held by user.
func (l *Ledger) BalanceOf(user domain.Identity) uint64 {
	var n uint64
	for _, tok := range l.tokens {
		if tok.Owner == user {
			n++
		}
	}
	return n
}

// TotalSupply is the number of tokens ever minted, burned included.
func (l *Ledger) TotalSupply() uint64 {
	return uint64(len(l.tokens))
}

// Token returns a deep copy of the token.
func (l *Ledger) Token(tokenID uint64) (*domain.Token, error) {
	tok, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	return tok.Clone(), nil
}

// Metadata returns a copy of the token's metadata descriptor.
func (l *Ledger) Metadata(tokenID uint64) (domain.MetadataDesc, error) {
	tok, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	return tok.Metadata.Clone(), nil
}

// MetadataForUser lists metadata of every token held by user,
// ordered by token id.
func (l *Ledger) MetadataForUser(user domain.Identity) []UserMetadata {
	out := make([]UserMetadata, 0)
	for _, tok := range l.tokens {
		if tok.Owner == user {
			out = append(out, UserMetadata{TokenID: tok.ID, Metadata: tok.Metadata.Clone()})
		}
	}
	return out
}

// DigestOf looks up the content-hash index entry for tokenID.
func (l *Ledger) DigestOf(tokenID uint64) (digest.Digest, bool) {
	return l.hashIndex.Get(tokenID)
}

// IsCustodian reports whether id holds custodianship.
func (l *Ledger) IsCustodian(id domain.Identity) bool {
	return l.isCustodian(id)
}

// IsApprovedForAll reports whether operator is in the caller's
// operator set.
func (l *Ledger) IsApprovedForAll(caller, operator domain.Identity) bool {
	return l.hasOperator(caller, operator)
}

// Name returns the registry name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the registry symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Logo returns the configured logo; ok is false when unset.
func (l *Ledger) Logo() (domain.Logo, bool) {
	return l.logo, !l.logo.IsZero()
}

// Whitelist returns the identities admitted to public self-minting,
// sorted for stable output.
func (l *Ledger) Whitelist() []domain.Identity {
	out := make([]domain.Identity, 0, len(l.whitelist))
	for id := range l.whitelist {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Window returns the mint window.
func (l *Ledger) Window() MintWindow {
	return l.window
}

// TotalLimit returns the advertised supply limit. It is surfaced but
// never enforced.
func (l *Ledger) TotalLimit() string {
	return l.totalLimit
}

// Txid returns the next transaction id to be allocated.
func (l *Ledger) Txid() uint64 {
	return l.txid
}
