package storage

import (
	"context"
	"encoding/binary"

	"github.com/mintworks/nftregistry-go/internal/storage/memory"
)

// ErrKeyNotFound is returned when a key does not exist in the store.
// Both engines report missing keys with this sentinel.
var ErrKeyNotFound = memory.ErrKeyNotFound

// KVEngine is the durable key-value store behind token content blobs.
//
// Blobs are written exactly once at mint time and never mutated, so
// the engine needs no transactions or versioning. The authoritative
// digest for every blob lives in the ledger's content-hash index; the
// KV store only has to return the bytes.
type KVEngine interface {
	// Get retrieves the value for a key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over all keys with the given prefix.
	// The callback receives key and value; returning an error stops
	// the scan and propagates the error.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error

	// GC triggers garbage collection and returns an estimate of the
	// bytes reclaimed. A no-op for engines without a value log.
	GC(ctx context.Context) (uint64, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVStats holds storage statistics for engines that can report them.
type KVStats struct {
	TotalSize        uint64 `json:"total_size"`
	LSMSize          uint64 `json:"lsm_size"`
	ValueLogSize     uint64 `json:"value_log_size"`
	LastGCTime       int64  `json:"last_gc_time"`
	GCBytesReclaimed uint64 `json:"gc_bytes_reclaimed"`
}

// KVStatser is implemented by engines that can report statistics.
type KVStatser interface {
	Stats(ctx context.Context) (*KVStats, error)
}

// KVConfig configures the content-blob store.
type KVConfig struct {
	// Engine selects the implementation: "badger" or "memory".
	Engine string `koanf:"engine"`

	// Dir is the data directory for disk-backed engines.
	Dir string `koanf:"dir"`

	// Badger holds Badger-specific tuning.
	Badger BadgerConfig `koanf:"badger"`
}

// BadgerConfig holds Badger-specific tuning parameters.
type BadgerConfig struct {
	// SyncWrites forces fsync on every write.
	SyncWrites bool `koanf:"sync_writes"`

	// ValueLogFileSize is the maximum value log file size in bytes.
	ValueLogFileSize int64 `koanf:"value_log_file_size"`

	// NumCompactors is the number of compaction workers.
	NumCompactors int `koanf:"num_compactors"`

	// GCInterval is the interval between automatic GC runs,
	// as a time.ParseDuration string.
	GCInterval string `koanf:"gc_interval"`

	// GCThreshold is the value log GC discard ratio (0..1).
	GCThreshold float64 `koanf:"gc_threshold"`
}

// DefaultKVConfig returns the default content-store configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger tuning.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		SyncWrites:       false,
		ValueLogFileSize: 256 << 20,
		NumCompactors:    2,
		GCInterval:       "10m",
		GCThreshold:      0.5,
	}
}

var contentPrefix = []byte("content/")

// ContentKey returns the storage key for a token's content blob.
func ContentKey(tokenID uint64) []byte {
	key := make([]byte, len(contentPrefix)+8)
	copy(key, contentPrefix)
	binary.BigEndian.PutUint64(key[len(contentPrefix):], tokenID)
	return key
}
