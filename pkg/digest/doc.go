// Package digest provides the SHA-256 digest value type used by the
// content-hash index.
//
// Digests are fixed-size byte arrays that marshal to lowercase hex in
// JSON, so snapshot and API payloads stay human-auditable.
package digest
