// Package gc implements the deferred-action manager: epoch-based
// reclamation for finished transactions and a double-deferral state
// machine for objects reachable through MVCC-governed catalog lookups
// rather than direct pointers.
package gc

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cuemby/relstore/pkg/metrics"
	"github.com/cuemby/relstore/pkg/txn"
)

type state int

const (
	scheduled state = iota
	pendingOneEpoch
	ready
)

type action struct {
	state state
	// epochAt is the epoch in effect the last time this action advanced
	// state — the epoch at Defer time for a scheduled action, or the
	// epoch at the point of its last transition otherwise. A call to
	// PerformGC only advances an action's state when the freshly
	// computed epoch has strictly exceeded epochAt, so three
	// back-to-back calls with no intervening transaction activity leave
	// it exactly where it started instead of running it early.
	epochAt uint64
	kind    string
	run     func()
}

// Vacuumable is a version-chain-holding table the Manager walks on
// every PerformGC cycle to unlink undo records whose installer
// committed before the epoch, and reclaim the slots behind them.
// Implemented by pkg/storage/table.DataTable; Manager depends only on
// this interface to avoid importing the storage layer.
type Vacuumable interface {
	Vacuum(epoch uint64) int
}

// Manager tracks the GC epoch (the minimum begin timestamp across live
// transactions) and runs deferred actions once they have aged past it.
// A single Defer call carries an action through all three states of
// the double-deferral machine — Scheduled, PendingOneEpoch, Ready — so
// callers never need to nest deferrals themselves the way a
// closure-based implementation would.
type Manager struct {
	txns  *txn.Manager
	epoch atomic.Uint64

	mu      sync.Mutex
	retired []*txn.Txn
	actions []*action
	tables  []Vacuumable
}

// NewManager builds a Manager and registers it as tm's Reclaimer.
func NewManager(tm *txn.Manager) *Manager {
	g := &Manager{txns: tm}
	tm.SetReclaimer(g)
	return g
}

// RegisterTable enrolls t to be vacuumed on every PerformGC cycle: its
// version chains get walked and trimmed once the versions behind the
// cut point have fallen below the epoch no live transaction can still
// need them.
func (g *Manager) RegisterTable(t Vacuumable) {
	g.mu.Lock()
	g.tables = append(g.tables, t)
	g.mu.Unlock()
}

// Retire implements txn.Reclaimer: tm hands every finished transaction
// here so its arena can be released once no live snapshot can still
// reach the versions it wrote. Unlinking the version-chain entries
// those versions live in (spec responsibility 1) is handled separately,
// by PerformGC walking every table registered via RegisterTable —
// chain position, not transaction identity, decides what is safe to
// unlink, so it is done per slot rather than per retired transaction.
func (g *Manager) Retire(t *txn.Txn) {
	g.mu.Lock()
	g.retired = append(g.retired, t)
	g.mu.Unlock()
}

// Defer enqueues run to execute after the action has aged through two
// full epoch advances, with kind used only to label the
// GCActionsRunTotal metric.
func (g *Manager) Defer(kind string, run func()) {
	g.mu.Lock()
	g.actions = append(g.actions, &action{kind: kind, run: run, epochAt: g.epoch.Load()})
	g.mu.Unlock()
}

// Epoch returns the current epoch: the minimum begin timestamp across
// live transactions as of the last PerformGC call.
func (g *Manager) Epoch() uint64 { return g.epoch.Load() }

// PerformGC advances the epoch, reclaims the arenas of transactions
// that finished strictly before it, and advances every deferred
// action one state, running those that have reached Ready.
func (g *Manager) PerformGC() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GCCycleDuration)

	newEpoch, ok := g.txns.OldestActiveBegin()
	if !ok {
		newEpoch = math.MaxUint64
	}
	if cur := g.epoch.Load(); newEpoch > cur {
		g.epoch.CompareAndSwap(cur, newEpoch)
	}
	epoch := g.epoch.Load()
	metrics.GCEpoch.Set(float64(epoch))

	g.mu.Lock()
	retired := g.retired
	g.retired = nil
	actions := g.actions
	g.actions = nil
	tables := append([]Vacuumable(nil), g.tables...)
	g.mu.Unlock()

	var stillRetired []*txn.Txn
	for _, t := range retired {
		finishTS, done := t.FinishTS()
		if done && finishTS < epoch {
			t.ReleaseArena()
			metrics.GCUndoRecordsReclaimedTotal.Inc()
			continue
		}
		stillRetired = append(stillRetired, t)
	}

	for _, tbl := range tables {
		if n := tbl.Vacuum(epoch); n > 0 {
			metrics.GCUndoRecordsReclaimedTotal.Add(float64(n))
		}
	}

	var stillPending []*action
	for _, a := range actions {
		switch a.state {
		case scheduled:
			if epoch > a.epochAt {
				a.state = pendingOneEpoch
				a.epochAt = epoch
			}
			stillPending = append(stillPending, a)
		case pendingOneEpoch:
			if epoch > a.epochAt {
				a.state = ready
				a.epochAt = epoch
			}
			stillPending = append(stillPending, a)
		case ready:
			a.run()
			metrics.GCActionsRunTotal.WithLabelValues(a.kind).Inc()
		}
	}

	g.mu.Lock()
	g.retired = append(g.retired, stillRetired...)
	g.actions = append(g.actions, stillPending...)
	g.mu.Unlock()
}
