// Package snapshot provides atomic state snapshots of the registry.
//
// A snapshot is a full dump of ledger state and the content-hash
// index in one file, so recovery replays only the WAL records after
// the snapshot's offset.
//
// Format:
//
//	snapshot-<ulid>.snap
//	[magic:8 "NFTRSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (state JSON, optionally AEAD-sealed)
//	[checksum:32 SHA-256 of all bytes above]
//
// Recovery loads the newest snapshot that passes checksum
// verification, falling back to older files when the newest is
// damaged, then replays the WAL from the recorded offset.
package snapshot
