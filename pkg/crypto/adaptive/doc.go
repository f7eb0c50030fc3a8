// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// It backs at-rest encryption of WAL segments and snapshot payloads.
// AES-256-GCM is preferred when hardware AES support is available,
// with ChaCha20-Poly1305 as the software fallback. All cipher
// operations are safe for concurrent use.
package adaptive
