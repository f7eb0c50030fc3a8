// Package ledger implements the token registry state machine.
//
// All mutations flow through a prepare/apply record pipeline: a
// Prepare method runs every authorization and argument check against
// current state and, on success, emits a Record describing the
// committed effect; Apply consumes a Record and mutates state without
// further checks. The write-ahead log persists Records between the
// two steps, so crash recovery is an unconditional replay of Apply.
//
// Transaction ids are allocated in Prepare (the pre-advance counter
// value) and committed by Apply, which keeps the counter gapless:
// a failed operation never advances it.
//
// The ledger itself is not concurrency-safe; the storage engine
// serializes access. The content-hash index is the one exception, it
// is backed by a concurrent map so digest lookups bypass the engine
// lock.
package ledger
