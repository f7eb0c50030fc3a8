package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/mintworks/nftregistry-go/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
)

const (
	// MinKeyLength is the minimum raw key length.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	// Argon2id parameters for passphrase-based derivation.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// EncryptionConfig configures at-rest encryption of snapshots and
// WAL frames.
type EncryptionConfig struct {
	// Key is the raw encryption key. Ignored when Passphrase is set.
	Key []byte

	// Passphrase derives the key via Argon2id.
	Passphrase []byte

	// Salt reproduces a previously derived key. When nil on the
	// passphrase path, a fresh salt is generated and returned; the
	// caller must persist it to decrypt later.
	Salt []byte

	// Algorithm selects "aes-gcm" (default) or "chacha20-poly1305".
	Algorithm string
}

// ValidateConfig validates the encryption configuration.
func ValidateConfig(cfg EncryptionConfig) error {
	if len(cfg.Passphrase) > 0 {
		if len(cfg.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		return nil
	}
	if len(cfg.Key) > 0 && len(cfg.Key) < MinKeyLength {
		return ErrKeyTooShort
	}
	return nil
}

// NewCipherFromConfig creates a cipher from the configuration.
// A nil cipher with nil error means encryption is not configured.
// The returned salt is non-nil only on the passphrase path.
func NewCipherFromConfig(cfg EncryptionConfig) (adaptive.Cipher, []byte, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}

	var key, salt []byte
	switch {
	case len(cfg.Passphrase) > 0:
		var err error
		salt, key, err = DeriveKeyFromPassphrase(cfg.Passphrase, cfg.Salt)
		if err != nil {
			return nil, nil, err
		}
	case len(cfg.Key) > 0:
		key = cfg.Key
	default:
		return nil, nil, nil
	}

	algo := cfg.Algorithm
	if algo == "" {
		algo = string(adaptive.CipherAESGCM)
	}

	c, err := adaptive.NewWithType(key, adaptive.CipherType(algo))
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	return c, salt, nil
}

// DeriveKeyFromPassphrase derives a 32-byte key using Argon2id. A nil
// salt generates a fresh one; both are returned so the caller can
// persist the salt alongside the encrypted data.
func DeriveKeyFromPassphrase(passphrase, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("snapshot: derive key: %w", err)
		}
	}

	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return salt, key, nil
}

// DeriveSubkey derives a purpose-specific subkey from a master key
// using HKDF, so snapshot and WAL encryption never share key
// material.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// GenerateKey generates a random key of the given length.
func GenerateKey(length int) ([]byte, error) {
	if length < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("snapshot: generate key: %w", err)
	}
	return key, nil
}

// ZeroKey zeros key material in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
