// Package txn implements timestamp issuance, transaction contexts, and
// the commit/abort protocol that publishes redo records to a log sink
// and hands finished transactions off to the garbage collector.
package txn

import (
	"sync"
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/logsink"
)

// Txn is a transaction context: a begin timestamp, an arena for undo
// before-images, a redo buffer staged for the log sink, and the
// commit/abort action lists registered against it.
type Txn struct {
	manager   *Manager
	beginTS   uint64
	finishTS  atomic.Uint64 // 0 until commit/abort sets it
	mustAbort atomic.Bool
	bootstrap bool

	arena *Arena

	mu            sync.Mutex
	redo          []logsink.Record
	undo          []func()
	commitActions []func()
	abortActions  []func()
}

// BeginTS is the transaction's begin timestamp.
func (t *Txn) BeginTS() uint64 { return t.beginTS }

// FinishTS returns the transaction's commit or abort timestamp and
// whether it has finished yet.
func (t *Txn) FinishTS() (uint64, bool) {
	ts := t.finishTS.Load()
	return ts, ts != 0
}

// Committed reports whether the transaction has committed. It is false
// both before completion and after an abort.
func (t *Txn) Committed() bool {
	ts, done := t.FinishTS()
	return done && IsCommitTS(ts)
}

// Aborted reports whether the transaction has aborted.
func (t *Txn) Aborted() bool {
	ts, done := t.FinishTS()
	return done && !IsCommitTS(ts)
}

// SetMustAbort marks the transaction so its next commit attempt diverts
// to abort. Used when a write-write conflict is detected.
func (t *Txn) SetMustAbort() { t.mustAbort.Store(true) }

// MustAbort reports whether the transaction is flagged to abort.
func (t *Txn) MustAbort() bool { return t.mustAbort.Load() }

// Arena is the transaction's bump allocator for undo before-images.
func (t *Txn) Arena() *Arena { return t.arena }

// ReleaseArena returns the transaction's arena to the shared pool. Only
// the garbage collector calls this, once it has determined no live
// snapshot can still reach the transaction's undo records.
func (t *Txn) ReleaseArena() {
	if t.arena == nil {
		return
	}
	releaseArena(t.arena)
	t.arena = nil
}

// RegisterCommitAction appends f to the actions run, in registration
// order, exactly once if the transaction commits.
func (t *Txn) RegisterCommitAction(f func()) {
	t.mu.Lock()
	t.commitActions = append(t.commitActions, f)
	t.mu.Unlock()
}

// RegisterAbortAction appends f to the actions run, in registration
// order, exactly once if the transaction aborts.
func (t *Txn) RegisterAbortAction(f func()) {
	t.mu.Lock()
	t.abortActions = append(t.abortActions, f)
	t.mu.Unlock()
}

// RegisterUndo appends revert to the transaction's undo stack. On
// abort, undo closures run newest-first (reverse of registration
// order), matching the version chain's own newest-first ordering.
func (t *Txn) RegisterUndo(revert func()) {
	t.mu.Lock()
	t.undo = append(t.undo, revert)
	t.mu.Unlock()
}

// StageWrite appends a redo record for a committed insert/update to be
// published to the log sink at commit time.
func (t *Txn) StageWrite(rec logsink.Record) {
	rec.Kind = logsink.KindRedo
	t.mu.Lock()
	t.redo = append(t.redo, rec)
	t.mu.Unlock()
}

// StageDelete appends a tombstone redo record.
func (t *Txn) StageDelete(rec logsink.Record) {
	rec.Kind = logsink.KindDelete
	t.mu.Lock()
	t.redo = append(t.redo, rec)
	t.mu.Unlock()
}

// ReadOnly reports whether the transaction has staged no writes, in
// which case commit emits no log records at all.
func (t *Txn) ReadOnly() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.redo) == 0
}

// IsVisibleTo reports whether a version installed by this transaction
// is visible to a reader with begin timestamp readerBeginTS. The
// installer's own in-progress or already-decided writes are always
// visible to itself; otherwise the installer must have committed at or
// before the reader's snapshot.
func (t *Txn) IsVisibleTo(reader *Txn) bool {
	if t == reader {
		return true
	}
	ts, done := t.FinishTS()
	if !done || !IsCommitTS(ts) {
		return false
	}
	return ts <= reader.beginTS
}
