package httpserver

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/server/config"
)

// keyEntry holds one declared API key. The secret is kept as a
// digest so Lookup compares fixed-length values in constant time.
type keyEntry struct {
	secretDigest [sha256.Size]byte
	key          domain.APIKey
}

// Keyring resolves API credentials declared in the server config to
// caller identities. It is immutable after construction.
type Keyring struct {
	entries map[string]keyEntry
}

// NewKeyring builds a keyring from config-declared API keys. Specs
// are assumed verified (see config.Verify).
func NewKeyring(specs []config.APIKeySpec) *Keyring {
	entries := make(map[string]keyEntry, len(specs))
	for _, spec := range specs {
		entries[spec.ID] = keyEntry{
			secretDigest: sha256.Sum256([]byte(spec.Secret)),
			key: domain.APIKey{
				KeyID:    spec.ID,
				Identity: domain.Identity(spec.Identity),
				Role:     domain.Role(spec.Role),
			},
		}
	}
	return &Keyring{entries: entries}
}

// Lookup validates a key id and secret pair. It returns the resolved
// API key on success.
func (k *Keyring) Lookup(keyID, secret string) (*domain.APIKey, bool) {
	entry, ok := k.entries[keyID]
	if !ok {
		return nil, false
	}
	got := sha256.Sum256([]byte(secret))
	if subtle.ConstantTimeCompare(got[:], entry.secretDigest[:]) != 1 {
		return nil, false
	}
	key := entry.key
	return &key, true
}

// Len returns the number of declared keys.
func (k *Keyring) Len() int {
	return len(k.entries)
}
