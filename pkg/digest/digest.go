package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the digest length in bytes (SHA-256).
const Size = sha256.Size

// HexLength is the length of the hex-encoded digest.
const HexLength = Size * 2

var errInvalidDigest = errors.New("digest: invalid hex digest")

// Digest is a SHA-256 digest.
type Digest [Size]byte

// Sum computes the digest of data.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// SumString computes the digest of the UTF-8 bytes of s.
func SumString(s string) Digest {
	return Sum([]byte(s))
}

// Parse decodes a hex-encoded digest.
func Parse(s string) (Digest, error) {
	var d Digest
	if len(s) != HexLength {
		return d, errInvalidDigest
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, errInvalidDigest
	}
	copy(d[:], raw)
	return d, nil
}

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is all zero bytes.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Bytes returns a copy of the raw digest bytes.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return fmt.Errorf("digest: unmarshal: %w", err)
	}
	*d = parsed
	return nil
}
