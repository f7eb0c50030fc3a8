// Package storage provides the storage engine for the registry.
//
// The engine combines the in-memory ledger, the WAL, snapshots, and
// the content-blob store. Every mutation runs the same pipeline:
// Prepare builds a record under the engine lock without touching
// state, the content blob is stored (mint only), the record is
// appended to the WAL, and only then is it applied to the ledger.
// A failure at any step leaves ledger state untouched, so the txid
// sequence never has gaps.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
	"github.com/mintworks/nftregistry-go/internal/core/ledger"
	"github.com/mintworks/nftregistry-go/internal/storage/memory"
	"github.com/mintworks/nftregistry-go/internal/storage/snapshot"
	"github.com/mintworks/nftregistry-go/internal/storage/wal"
	"github.com/mintworks/nftregistry-go/pkg/crypto/adaptive"
	"github.com/mintworks/nftregistry-go/pkg/digest"
)

// Default configuration values.
const (
	DefaultSnapshotInterval = time.Hour
	DefaultWALDir           = "wal"
	DefaultSnapshotDir      = "snapshots"
	DefaultContentDir       = "content"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	// Genesis seeds the ledger on first start and on WAL-only
	// recovery. Once a snapshot exists, the restored state replaces
	// it entirely.
	Genesis ledger.Genesis

	// WAL configuration.
	WAL wal.Config

	// Snapshot configuration.
	Snapshot snapshot.Config

	// KV configures the content-blob store. Ignored when Content is
	// set.
	KV KVConfig

	// Content optionally supplies a pre-built content store.
	Content KVEngine

	// SnapshotInterval is the interval between automatic snapshots.
	SnapshotInterval time.Duration

	// Cipher is the optional at-rest encryption cipher, applied to
	// both WAL frames and snapshot payloads.
	Cipher adaptive.Cipher

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration rooted at
// dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		WAL:              wal.DefaultConfig(dataDir + "/" + DefaultWALDir),
		Snapshot:         snapshot.DefaultConfig(dataDir + "/" + DefaultSnapshotDir),
		KV:               DefaultKVConfig(dataDir + "/" + DefaultContentDir),
		SnapshotInterval: DefaultSnapshotInterval,
		Logger:           slog.Default(),
	}
}

// NewKVEngine builds the configured content-store implementation.
func NewKVEngine(cfg KVConfig, logger *slog.Logger) (KVEngine, error) {
	switch cfg.Engine {
	case "", "badger":
		return NewBadgerEngine(cfg, logger)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("storage: unknown kv engine %q", cfg.Engine)
	}
}

// MintResult reports the outcome of a mint.
type MintResult struct {
	TokenID uint64 `json:"token_id"`
	Txid    uint64 `json:"txid"`
}

// Engine is the storage engine combining ledger, WAL, snapshots and
// the content store. All mutations are serialized behind one mutex;
// queries take a read view.
type Engine struct {
	cfg Config

	mu      sync.RWMutex
	ledger  *ledger.Ledger
	wal     *wal.Writer
	snaps   *snapshot.Manager
	content KVEngine

	// ownsContent marks a store the engine built itself; an injected
	// store outlives the engine.
	ownsContent bool

	lastWALOffset uint64

	nowFn  func() int64
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a storage engine. It initializes all components but
// does not perform recovery; call Recover before serving traffic.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}

	cfg.WAL.Cipher = cfg.Cipher
	cfg.Snapshot.Cipher = cfg.Cipher

	walWriter, err := wal.NewWriter(cfg.WAL)
	if err != nil {
		return nil, fmt.Errorf("storage: create wal writer: %w", err)
	}

	snapMgr, err := snapshot.NewManager(cfg.Snapshot)
	if err != nil {
		walWriter.Close()
		return nil, fmt.Errorf("storage: create snapshot manager: %w", err)
	}

	content := cfg.Content
	ownsContent := false
	if content == nil {
		content, err = NewKVEngine(cfg.KV, cfg.Logger)
		if err != nil {
			walWriter.Close()
			return nil, err
		}
		ownsContent = true
	}

	e := &Engine{
		cfg:         cfg,
		ledger:      ledger.New(cfg.Genesis),
		wal:         walWriter,
		snaps:       snapMgr,
		content:     content,
		ownsContent: ownsContent,
		nowFn:       func() int64 { return time.Now().UnixMilli() },
		logger:      cfg.Logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	go e.backgroundLoop()

	return e, nil
}

// Recover restores registry state from the latest valid snapshot and
// replays WAL records written after it.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	startTime := time.Now()

	state, info, err := e.snaps.Load()
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshots) {
			return fmt.Errorf("storage: load snapshot: %w", err)
		}
		e.logger.Info("no snapshot found, starting from genesis")
	}

	fromOffset := uint64(0)
	if state != nil {
		if err := e.ledger.Restore(state); err != nil {
			return fmt.Errorf("storage: restore snapshot: %w", err)
		}
		fromOffset = info.WALLastOffset
		e.lastWALOffset = fromOffset
		e.logger.Info("snapshot loaded",
			"path", info.Path,
			"token_count", info.TokenCount,
			"wal_last_offset", info.WALLastOffset)
	}

	applied, err := e.replayWAL(ctx, fromOffset)
	if err != nil {
		return fmt.Errorf("storage: replay wal: %w", err)
	}

	e.logger.Info("recovery completed",
		"records_applied", applied,
		"total_supply", e.ledger.TotalSupply(),
		"txid", e.ledger.Txid(),
		"elapsed", time.Since(startTime))

	return nil
}

// replayWAL applies WAL records from the given composite offset.
// Records carry the post-authorization effect, so replay is an
// unconditional Apply.
func (e *Engine) replayWAL(ctx context.Context, fromOffset uint64) (int, error) {
	reader, err := wal.NewReader(e.cfg.WAL.Dir, e.cfg.WAL.Cipher)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if err := reader.Seek(fromOffset); err != nil {
		return 0, err
	}

	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		rec, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return applied, err
		}
		e.ledger.Apply(rec)
		applied++
	}

	e.lastWALOffset = e.wal.CurrentOffset()
	return applied, nil
}

// commitLocked makes a prepared record durable and applies it.
// Callers must hold the write lock.
func (e *Engine) commitLocked(rec *ledger.Record) error {
	if err := e.wal.Append(rec); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	e.ledger.Apply(rec)
	e.lastWALOffset = e.wal.CurrentOffset()
	return nil
}

// Mint creates a token with explicit metadata and content. The blob
// is stored before the record is committed; a commit failure leaves
// the id unallocated, and the next successful mint of that id simply
// overwrites the orphaned blob.
func (e *Engine) Mint(ctx context.Context, caller, to domain.Identity, metadata domain.MetadataDesc, content []byte) (*MintResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareMint(caller, to, metadata, content, e.nowFn())
	if err != nil {
		return nil, err
	}

	if len(content) > 0 {
		if err := e.content.Set(ctx, ContentKey(rec.TokenID), content); err != nil {
			return nil, domain.ErrStorageError.WithCause(err)
		}
	}

	if err := e.commitLocked(rec); err != nil {
		return nil, err
	}
	return &MintResult{TokenID: rec.TokenID, Txid: rec.Txid}, nil
}

// SimpleMint runs the public self-mint path: URI validation, mint
// window, whitelist, then a mint with synthesized metadata and empty
// content.
func (e *Engine) SimpleMint(ctx context.Context, caller, to domain.Identity, uri, mimeType, name, origin string) (*MintResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSimpleMint(caller, to, uri, mimeType, name, origin, e.nowFn())
	if err != nil {
		return nil, err
	}
	if err := e.commitLocked(rec); err != nil {
		return nil, err
	}
	return &MintResult{TokenID: rec.TokenID, Txid: rec.Txid}, nil
}

// Transfer moves a token from its stated source to a new owner.
func (e *Engine) Transfer(ctx context.Context, caller, from, to domain.Identity, tokenID uint64, safe bool) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareTransfer(caller, from, to, tokenID, safe)
	if err != nil {
		return 0, err
	}
	if err := e.commitLocked(rec); err != nil {
		return 0, err
	}
	return rec.Txid, nil
}

// Approve grants a single-token delegate.
func (e *Engine) Approve(ctx context.Context, caller, delegate domain.Identity, tokenID uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareApprove(caller, delegate, tokenID)
	if err != nil {
		return 0, err
	}
	if err := e.commitLocked(rec); err != nil {
		return 0, err
	}
	return rec.Txid, nil
}

// SetApprovalForAll grants or revokes an operator over all of the
// caller's tokens.
func (e *Engine) SetApprovalForAll(ctx context.Context, caller, operator domain.Identity, enabled bool) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSetOperator(caller, operator, enabled)
	if err != nil {
		return 0, err
	}
	if err := e.commitLocked(rec); err != nil {
		return 0, err
	}
	return rec.Txid, nil
}

// Burn transfers a token to the zero identity.
func (e *Engine) Burn(ctx context.Context, caller domain.Identity, tokenID uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareBurn(caller, tokenID)
	if err != nil {
		return 0, err
	}
	if err := e.commitLocked(rec); err != nil {
		return 0, err
	}
	return rec.Txid, nil
}

// SetName sets the collection name. Custodian only.
func (e *Engine) SetName(ctx context.Context, caller domain.Identity, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSetName(caller, name)
	if err != nil {
		return err
	}
	return e.commitLocked(rec)
}

// SetSymbol sets the collection symbol. Custodian only.
func (e *Engine) SetSymbol(ctx context.Context, caller domain.Identity, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSetSymbol(caller, symbol)
	if err != nil {
		return err
	}
	return e.commitLocked(rec)
}

// SetLogo sets the collection logo. Custodian only.
func (e *Engine) SetLogo(ctx context.Context, caller domain.Identity, logo *domain.Logo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSetLogo(caller, logo)
	if err != nil {
		return err
	}
	return e.commitLocked(rec)
}

// SetCustodian grants or revokes custodian status. Custodian only.
func (e *Engine) SetCustodian(ctx context.Context, caller, custodian domain.Identity, grant bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.ledger.PrepareSetCustodian(caller, custodian, grant)
	if err != nil {
		return err
	}
	return e.commitLocked(rec)
}

// Content returns a token's content blob. Tokens minted with empty
// content return nil.
func (e *Engine) Content(ctx context.Context, tokenID uint64) ([]byte, error) {
	e.mu.RLock()
	_, err := e.ledger.Token(tokenID)
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	data, err := e.content.Get(ctx, ContentKey(tokenID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return data, nil
}

// OwnerOf returns the owner of a token.
func (e *Engine) OwnerOf(tokenID uint64) (domain.Identity, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.OwnerOf(tokenID)
}

// BalanceOf counts the unburned tokens owned by an identity.
func (e *Engine) BalanceOf(user domain.Identity) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.BalanceOf(user)
}

// TotalSupply counts all minted tokens, burned included.
func (e *Engine) TotalSupply() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.TotalSupply()
}

// Token returns a copy of a token.
func (e *Engine) Token(tokenID uint64) (*domain.Token, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Token(tokenID)
}

// Metadata returns a token's metadata.
func (e *Engine) Metadata(tokenID uint64) (domain.MetadataDesc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Metadata(tokenID)
}

// MetadataForUser returns metadata of all tokens owned by an identity.
func (e *Engine) MetadataForUser(user domain.Identity) []ledger.UserMetadata {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.MetadataForUser(user)
}

// DigestOf returns the content-hash index entry for a token.
func (e *Engine) DigestOf(tokenID uint64) (digest.Digest, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.DigestOf(tokenID)
}

// IsCustodian reports whether an identity is a custodian.
func (e *Engine) IsCustodian(id domain.Identity) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.IsCustodian(id)
}

// IsApprovedForAll reports whether operator may act for caller.
func (e *Engine) IsApprovedForAll(caller, operator domain.Identity) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.IsApprovedForAll(caller, operator)
}

// Name returns the collection name.
func (e *Engine) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Name()
}

// Symbol returns the collection symbol.
func (e *Engine) Symbol() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Symbol()
}

// Logo returns the collection logo, if set.
func (e *Engine) Logo() (domain.Logo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Logo()
}

// Whitelist returns the self-mint whitelist.
func (e *Engine) Whitelist() []domain.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Whitelist()
}

// Window returns the mint window.
func (e *Engine) Window() ledger.MintWindow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Window()
}

// TotalLimit returns the configured (never enforced) supply limit.
func (e *Engine) TotalLimit() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.TotalLimit()
}

// Txid returns the next transaction id to be assigned.
func (e *Engine) Txid() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Txid()
}

// TriggerSnapshot creates a snapshot of the full registry state,
// prunes old snapshots, and compacts the WAL behind the new one.
func (e *Engine) TriggerSnapshot(ctx context.Context) (*snapshot.Info, error) {
	e.mu.Lock()
	if err := e.wal.Flush(); err != nil {
		e.mu.Unlock()
		return nil, domain.ErrStorageError.WithCause(err)
	}
	state := e.ledger.Export()
	offset := e.wal.CurrentOffset()
	e.mu.Unlock()

	info, err := e.snaps.Create(state, offset)
	if err != nil {
		return nil, fmt.Errorf("storage: create snapshot: %w", err)
	}

	e.logger.Info("snapshot created",
		"id", info.ID,
		"token_count", info.TokenCount,
		"wal_last_offset", info.WALLastOffset,
		"size_bytes", info.Size)

	if err := e.snaps.Prune(); err != nil {
		e.logger.Warn("snapshot prune failed", "error", err)
	}

	compactor := wal.NewCompactor(e.cfg.WAL.Dir)
	if err := compactor.Compact(info.WALLastOffset); err != nil {
		e.logger.Warn("wal compaction failed", "error", err)
	}

	return info, nil
}

// Snapshots lists available snapshots, newest first.
func (e *Engine) Snapshots() ([]*snapshot.Info, error) {
	return e.snaps.List()
}

// EngineStats reports engine-level statistics.
type EngineStats struct {
	TotalSupply   uint64 `json:"total_supply"`
	NextTxid      uint64 `json:"next_txid"`
	WALSizeBytes  int64  `json:"wal_size_bytes"`
	SnapshotCount int    `json:"snapshot_count"`
}

// Stats collects statistics for metrics collection and the admin
// surface.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	st := EngineStats{
		TotalSupply: e.ledger.TotalSupply(),
		NextTxid:    e.ledger.Txid(),
	}
	e.mu.RUnlock()

	if size, err := wal.NewCompactor(e.cfg.WAL.Dir).TotalSize(); err == nil {
		st.WALSizeBytes = size
	}
	if infos, err := e.snaps.List(); err == nil {
		st.SnapshotCount = len(infos)
	}
	return st
}

// ContentStats reports content-store statistics when the engine
// supports them.
func (e *Engine) ContentStats(ctx context.Context) (*KVStats, error) {
	if s, ok := e.content.(KVStatser); ok {
		return s.Stats(ctx)
	}
	return &KVStats{}, nil
}

func (e *Engine) backgroundLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := e.TriggerSnapshot(ctx); err != nil {
				e.logger.Error("auto snapshot failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// Close gracefully shuts down the storage engine.
func (e *Engine) Close() error {
	close(e.stopCh)
	<-e.doneCh

	var firstErr error
	if err := e.wal.Close(); err != nil {
		e.logger.Error("close wal failed", "error", err)
		firstErr = err
	}
	if e.ownsContent {
		if err := e.content.Close(); err != nil {
			e.logger.Error("close content store failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
