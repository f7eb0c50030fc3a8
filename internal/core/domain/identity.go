package domain

// Identity is an opaque principal identifier.
//
// The zero value is the sentinel identity: it owns burned tokens, is
// rejected as a transfer destination, and acts as the mass-clear key
// for operator sets. It is never a valid caller.
type Identity string

// Sentinel is the zero identity.
const Sentinel Identity = ""

// IsZero reports whether the identity is the sentinel.
func (id Identity) IsZero() bool {
	return id == Sentinel
}

// String returns the identity as a plain string.
func (id Identity) String() string {
	return string(id)
}
