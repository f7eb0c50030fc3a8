// Package cmap provides a concurrent-safe sharded map.
//
// It uses per-shard RWMutex locking to reduce contention under
// concurrent readers, which suits the registry's read-heavy hash
// index. All operations are safe for concurrent use.
package cmap
