package domain

import (
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// Token metadata constraints.
const (
	MaxTokenNameLength   = 256
	MaxMetadataParts     = 16
	MaxMetadataKeyLength = 64
	MaxContentSize       = 8 << 20 // 8 MiB per content blob
)

// Token is a registered token. The content blob itself lives in the
// content store; the token carries its size and digest.
type Token struct {
	// ID is the token identifier, allocated sequentially at mint.
	ID uint64 `json:"id"`

	// Owner is the current holder. The sentinel identity after burn.
	Owner Identity `json:"owner"`

	// Approved is the per-token delegate, if any. Cleared on
	// transfer, replaced on approve.
	Approved Identity `json:"approved,omitempty"`

	// Metadata is the descriptor attached at mint (immutable).
	Metadata MetadataDesc `json:"metadata"`

	// ContentSize is the content blob length in bytes.
	ContentSize int64 `json:"content_size"`

	// ContentDigest is the SHA-256 digest recorded in the hash index.
	ContentDigest digest.Digest `json:"content_digest"`

	// MintedAt is the mint timestamp (Unix milliseconds).
	MintedAt int64 `json:"minted_at"`
}

// IsBurned reports whether the token has been burned. Burned tokens
// are owned by the sentinel identity but keep their metadata and stay
// queryable by id.
func (t *Token) IsBurned() bool {
	return t.Owner.IsZero()
}

// Clone returns a deep copy safe to hand out of the ledger lock.
func (t *Token) Clone() *Token {
	cp := *t
	cp.Metadata = t.Metadata.Clone()
	return &cp
}

// Logo is the optional registry logo asset.
type Logo struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// IsZero reports whether no logo has been set.
func (l Logo) IsZero() bool {
	return l.ContentType == "" && len(l.Data) == 0
}
