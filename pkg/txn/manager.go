package txn

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/log"
	"github.com/cuemby/relstore/pkg/logsink"
	"github.com/cuemby/relstore/pkg/metrics"
)

// IsCommitTS reports whether ts was issued as a commit timestamp (its
// low bit set) rather than a begin timestamp.
func IsCommitTS(ts uint64) bool { return ts&1 == 1 }

// Reclaimer receives finished transactions so version chains and
// arenas can be reclaimed once no live snapshot can observe them.
// Implemented by pkg/gc; Manager depends only on this interface to
// avoid importing the gc package.
type Reclaimer interface {
	Retire(t *Txn)
}

// Manager issues timestamps and runs the commit/abort protocol.
type Manager struct {
	seq   atomic.Uint64
	sink  logsink.Sink
	recl  atomic.Pointer[Reclaimer]
	liveM sync.Mutex
	live  map[*Txn]struct{}
}

// NewManager builds a Manager publishing committed writes to sink. sink
// may be nil, in which case commits never touch durable storage.
func NewManager(sink logsink.Sink) *Manager {
	return &Manager{sink: sink, live: make(map[*Txn]struct{})}
}

// SetReclaimer wires the garbage collector that finished transactions
// are handed off to. Must be called before any transaction finishes.
func (m *Manager) SetReclaimer(r Reclaimer) { m.recl.Store(&r) }

func (m *Manager) nextTimestamp(commit bool) uint64 {
	n := m.seq.Add(1)
	ts := n << 1
	if commit {
		ts |= 1
	}
	return ts
}

func (m *Manager) newTxn(beginTS uint64, bootstrap bool) *Txn {
	t := &Txn{manager: m, beginTS: beginTS, arena: acquireArena(), bootstrap: bootstrap}
	m.liveM.Lock()
	m.live[t] = struct{}{}
	m.liveM.Unlock()
	metrics.TxnBeginsTotal.Inc()
	metrics.ActiveTxns.Inc()
	return t
}

// Begin obtains a begin timestamp and returns a fresh transaction
// context. Begin timestamps are strictly monotonic.
func (m *Manager) Begin() *Txn {
	return m.newTxn(m.nextTimestamp(false), false)
}

// BeginBootstrap starts the catalog's one-time bootstrap transaction.
// It may only be called before any other timestamp has been issued, so
// that the commit it produces is observably the oldest in the system —
// a concrete realization of "every installed row is already
// committed" without any special-casing in the visibility rule.
func (m *Manager) BeginBootstrap() (*Txn, error) {
	if !m.seq.CompareAndSwap(0, 0) {
		return nil, errs.ErrBootstrapAssertionFailure
	}
	return m.newTxn(m.nextTimestamp(false), true), nil
}

// OldestActiveBegin returns the minimum begin timestamp across
// currently-live transactions, used by the garbage collector to
// advance its epoch. ok is false when no transaction is live.
func (m *Manager) OldestActiveBegin() (ts uint64, ok bool) {
	m.liveM.Lock()
	defer m.liveM.Unlock()
	if len(m.live) == 0 {
		return 0, false
	}
	begins := make([]uint64, 0, len(m.live))
	for t := range m.live {
		begins = append(begins, t.beginTS)
	}
	sort.Slice(begins, func(i, j int) bool { return begins[i] < begins[j] })
	return begins[0], true
}

func (m *Manager) retire(t *Txn) {
	m.liveM.Lock()
	delete(m.live, t)
	m.liveM.Unlock()
	metrics.ActiveTxns.Dec()

	if p := m.recl.Load(); p != nil {
		(*p).Retire(t)
	}
}

// Future is a handle to a pending commit's durability callback, for
// callers that prefer blocking to callback style.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func (f *Future) finish(err error) {
	f.err = err
	close(f.done)
}

// Wait blocks until the commit's callback would have fired and returns
// its error, or ctx's error if ctx is done first.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Commit runs the commit protocol for t: diverting to Abort if t is
// flagged must-abort, otherwise obtaining a commit timestamp,
// publishing staged redo records, running commit actions, handing t to
// the reclaimer, and finally invoking cb once the log sink has
// confirmed durability (or immediately if logging is disabled). cb may
// be nil. The returned Future resolves at the same point cb fires.
func (m *Manager) Commit(ctx context.Context, t *Txn, cb func(error), arg any) *Future {
	future := newFuture()
	if t.MustAbort() {
		m.Abort(t)
		err := errs.ErrMustAbort
		if cb != nil {
			cb(err)
		}
		future.finish(err)
		return future
	}

	commitTS := m.nextTimestamp(true)
	t.finishTS.Store(commitTS)

	t.mu.Lock()
	redo := t.redo
	actions := t.commitActions
	t.mu.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TxnCommitDuration)

	var err error
	if len(redo) > 0 && m.sink != nil {
		for i := range redo {
			redo[i].CommitTS = commitTS
			if e := m.sink.Append(ctx, redo[i]); e != nil {
				err = fmt.Errorf("txn: append redo record: %w", e)
				break
			}
		}
		if err == nil {
			if e := m.sink.Append(ctx, logsink.Record{Kind: logsink.KindCommit, BeginTS: t.beginTS, CommitTS: commitTS}); e != nil {
				err = fmt.Errorf("txn: append commit record: %w", e)
			}
		}
		if err == nil {
			err = m.sink.Flush(ctx)
		}
	}

	if err == nil {
		for _, action := range actions {
			action()
		}
		metrics.TxnCommitsTotal.Inc()
	} else {
		log.Logger.Error().Err(err).Uint64("commit_ts", commitTS).Msg("commit failed after redo publication")
	}

	m.retire(t)
	if cb != nil {
		cb(err)
	}
	future.finish(err)
	return future
}

// Abort reverts t's undo stack newest-first, runs its abort actions in
// registration order, and hands t to the reclaimer.
func (m *Manager) Abort(t *Txn) {
	abortTS := m.nextTimestamp(false) // aborts carry the begin-shaped low bit: IsCommitTS is always false for them
	t.finishTS.Store(abortTS)

	t.mu.Lock()
	undo := t.undo
	actions := t.abortActions
	t.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	for _, action := range actions {
		action()
	}

	metrics.TxnAbortsTotal.WithLabelValues("conflict").Inc()
	m.retire(t)
}
