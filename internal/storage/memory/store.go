// Package memory provides an in-memory content-blob store for tests
// and small deployments that can afford to lose blobs on restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mintworks/nftregistry-go/pkg/cmap"
)

// ErrKeyNotFound is returned when a key does not exist in the store.
var ErrKeyNotFound = errors.New("memory: key not found")

// Store is an in-memory key-value store backed by a sharded map.
// Values are copied on both write and read, so callers can never
// mutate stored data through a retained slice.
type Store struct {
	data  *cmap.Map[string, []byte]
	bytes atomic.Int64
}

// New creates an empty store.
func New() *Store {
	return &Store{data: cmap.New[string, []byte]()}
}

// Get retrieves the value for a key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	value, ok := s.data.Get(string(key))
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a key-value pair.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	k := string(key)
	stored := make([]byte, len(value))
	copy(stored, value)

	if prev, ok := s.data.Get(k); ok {
		s.bytes.Add(-int64(len(prev)))
	}
	s.data.Set(k, stored)
	s.bytes.Add(int64(len(stored)))
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if prev, ok := s.data.Pop(string(key)); ok {
		s.bytes.Add(-int64(len(prev)))
	}
	return nil
}

// Scan iterates over all keys with the given prefix in key order.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	keys := s.data.Keys()
	sort.Strings(keys)

	p := string(prefix)
	for _, k := range keys {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		value, ok := s.data.Get(k)
		if !ok {
			continue
		}
		if err := fn([]byte(k), value); err != nil {
			return err
		}
	}
	return nil
}

// GC is a no-op; the store has no value log to compact.
func (s *Store) GC(ctx context.Context) (uint64, error) {
	return 0, nil
}

// Count returns the number of stored keys.
func (s *Store) Count() int {
	return s.data.Count()
}

// Size returns the total size of stored values in bytes.
func (s *Store) Size() int64 {
	return s.bytes.Load()
}

// Close releases the store's contents.
func (s *Store) Close() error {
	s.data.Clear()
	s.bytes.Store(0)
	return nil
}
