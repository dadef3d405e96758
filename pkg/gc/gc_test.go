package gc

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/txn"
	"github.com/stretchr/testify/require"
)

func TestPerformGCReclaimsFinishedTxnArenas(t *testing.T) {
	tm := txn.NewManager(nil)
	g := NewManager(tm)
	ctx := context.Background()

	committed := tm.Begin()
	committed.Arena().Alloc(16)
	tm.Commit(ctx, committed, nil, nil)

	g.PerformGC()
	g.PerformGC()
	require.Nil(t, committed.Arena())
}

func TestPerformGCHoldsBackWhileOlderTxnLive(t *testing.T) {
	tm := txn.NewManager(nil)
	g := NewManager(tm)
	ctx := context.Background()

	oldReader := tm.Begin()
	writer := tm.Begin()
	tm.Commit(ctx, writer, nil, nil)

	g.PerformGC()
	require.NotNil(t, writer.Arena(), "committed txn newer than a still-live reader must not be reclaimed yet")

	tm.Commit(ctx, oldReader, nil, nil)
	g.PerformGC()
}

func TestDeferredActionRunsAfterDoubleDeferral(t *testing.T) {
	tm := txn.NewManager(nil)
	g := NewManager(tm)
	ctx := context.Background()

	// A live reader pins the epoch at a finite value before Defer is
	// even called, so the bare calls below have a real, unmoving epoch
	// to fail to advance past — "no transaction ever ran" would let the
	// epoch jump straight to infinity and advance the action for free.
	pin := tm.Begin()
	g.PerformGC()

	var ran int
	g.Defer("test", func() { ran++ })

	g.PerformGC()
	require.Equal(t, 0, ran)
	g.PerformGC()
	require.Equal(t, 0, ran)
	g.PerformGC()
	require.Equal(t, 0, ran, "call count alone must never advance a deferred action")

	// First genuine epoch advance: a newer transaction becomes the
	// oldest live one once pin retires.
	next := tm.Begin()
	require.NoError(t, tm.Commit(ctx, pin, nil, nil).Wait(ctx))
	g.PerformGC()
	require.Equal(t, 0, ran, "one epoch advance only reaches PendingOneEpoch")

	g.PerformGC()
	require.Equal(t, 0, ran, "a call with no further epoch movement must not advance a second time")

	// Second genuine epoch advance.
	last := tm.Begin()
	require.NoError(t, tm.Commit(ctx, next, nil, nil).Wait(ctx))
	g.PerformGC()
	require.Equal(t, 0, ran, "action reaches Ready only on this call, runs on the next")

	g.PerformGC()
	require.Equal(t, 1, ran)

	require.NoError(t, tm.Commit(ctx, last, nil, nil).Wait(ctx))
}

type fakeVacuumable struct {
	calls  []uint64
	report int
}

func (f *fakeVacuumable) Vacuum(epoch uint64) int {
	f.calls = append(f.calls, epoch)
	return f.report
}

func TestPerformGCVacuumsRegisteredTables(t *testing.T) {
	tm := txn.NewManager(nil)
	g := NewManager(tm)
	ctx := context.Background()

	tbl := &fakeVacuumable{report: 3}
	g.RegisterTable(tbl)

	a := tm.Begin()
	require.NoError(t, tm.Commit(ctx, a, nil, nil).Wait(ctx))
	g.PerformGC()

	require.Len(t, tbl.calls, 1, "every PerformGC cycle vacuums every registered table")
	require.Equal(t, g.Epoch(), tbl.calls[0], "the table is vacuumed with this cycle's own epoch")

	g.PerformGC()
	require.Len(t, tbl.calls, 2)
}

func TestEpochNeverDecreases(t *testing.T) {
	tm := txn.NewManager(nil)
	g := NewManager(tm)
	ctx := context.Background()

	a := tm.Begin()
	g.PerformGC()
	first := g.Epoch()

	tm.Commit(ctx, a, nil, nil)
	g.PerformGC()
	require.GreaterOrEqual(t, g.Epoch(), first)
}
