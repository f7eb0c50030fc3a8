// Package wal provides write-ahead logging of ledger records.
//
// Records are persisted before they are applied to the in-memory
// ledger, so recovery is snapshot restore plus sequential replay.
//
// Format:
//
//	wal-<segment-id>.log
//	[magic:8 "NFTRWAL\x01"]
//	[frame]*
//	[checksum:32 SHA-256 of all bytes above] (only on finalized segments)
//
// Frame wire format:
//
//	[Length:4][CRC32:4][Op:1][Payload:Length-5]
//
// Where:
//   - Length = CRC32 + Op + Payload (big-endian uint32)
//   - CRC32 covers Op+Payload (IEEE)
//   - Payload is the record JSON, optionally AEAD-sealed
//
// Segments rotate at configurable size/record-count limits and are
// finalized with a SHA-256 trailer. Offsets are composite:
// (segmentID<<32 | byte offset within segment).
package wal
