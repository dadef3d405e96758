package table

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/txn"
	"github.com/stretchr/testify/require"
)

// Vacuum's spec responsibility: once every version above a chain entry
// has committed below the epoch, the entries behind it are unreachable
// and must be unlinked.
func TestVacuumTrimsChainBehindEpochBoundary(t *testing.T) {
	layout := testTableLayout()
	dt := New(1, layout, layout.SlotSize()*4, 4)
	m := txn.NewManager(nil)
	ctx := context.Background()

	seed := m.Begin()
	init := row.NewInitializer(layout, []block.ColumnID{1, 2})
	redo := init.NewRow()
	putInt32(redo, 1, 1)
	putInt32(redo, 2, 0)
	slot := dt.Insert(seed, redo)
	require.NoError(t, m.Commit(ctx, seed, nil, nil).Wait(ctx))

	for i := 1; i <= 3; i++ {
		writer := m.Begin()
		upd := init.NewRow()
		putInt32(upd, 1, 1)
		putInt32(upd, 2, int32(i))
		require.NoError(t, dt.Update(writer, slot, upd))
		require.NoError(t, m.Commit(ctx, writer, nil, nil).Wait(ctx))
	}

	chainLen := func() int {
		heads := dt.headsFor(slot.block)
		n := 0
		for cur := heads.arr[slot.offset].Load(); cur != nil; cur = cur.next.Load() {
			n++
		}
		return n
	}
	require.Equal(t, 4, chainLen(), "seed insert plus three updates")

	reclaimed := dt.Vacuum(^uint64(0))
	require.Equal(t, 1, reclaimed)
	require.Equal(t, 1, chainLen(), "only the newest, universally-visible version should remain")

	reader := m.Begin()
	out := init.NewRow()
	require.True(t, dt.Select(reader, slot, out))
	require.Equal(t, int32(3), getInt32(out, 2), "the surviving version must still be the latest committed value")
}

// A slot whose only remaining version is an already-dead tombstone is
// fully reclaimed: the chain is unlinked and the presence bit cleared,
// the half of responsibility 1 block.ClearPresent exists for.
func TestVacuumClearsPresenceForDeadTombstone(t *testing.T) {
	layout := testTableLayout()
	dt := New(1, layout, layout.SlotSize()*4, 4)
	m := txn.NewManager(nil)
	ctx := context.Background()

	seed := m.Begin()
	init := row.NewInitializer(layout, []block.ColumnID{1, 2})
	redo := init.NewRow()
	putInt32(redo, 1, 1)
	slot := dt.Insert(seed, redo)
	require.NoError(t, m.Commit(ctx, seed, nil, nil).Wait(ctx))

	deleter := m.Begin()
	require.NoError(t, dt.Delete(deleter, slot))
	require.NoError(t, m.Commit(ctx, deleter, nil, nil).Wait(ctx))

	require.True(t, slot.block.IsPresent(slot.offset))

	reclaimed := dt.Vacuum(^uint64(0))
	require.Equal(t, 1, reclaimed)
	require.False(t, slot.block.IsPresent(slot.offset))

	heads := dt.headsFor(slot.block)
	require.Nil(t, heads.arr[slot.offset].Load())
}

// A version still newer than the epoch (commit timestamp above it, or
// not yet committed) must never be trimmed away, nor anything behind
// it that a live reader with an older begin could still need.
func TestVacuumHoldsBackUntilEpochSurpassesCommit(t *testing.T) {
	layout := testTableLayout()
	dt := New(1, layout, layout.SlotSize()*4, 4)
	m := txn.NewManager(nil)
	ctx := context.Background()

	seed := m.Begin()
	init := row.NewInitializer(layout, []block.ColumnID{1, 2})
	redo := init.NewRow()
	putInt32(redo, 1, 1)
	putInt32(redo, 2, 0)
	slot := dt.Insert(seed, redo)
	require.NoError(t, m.Commit(ctx, seed, nil, nil).Wait(ctx))

	reader := m.Begin()

	writer := m.Begin()
	upd := init.NewRow()
	putInt32(upd, 1, 1)
	putInt32(upd, 2, 1)
	require.NoError(t, dt.Update(writer, slot, upd))
	require.NoError(t, m.Commit(ctx, writer, nil, nil).Wait(ctx))

	// epoch pinned at reader's begin: the update committed after it, so
	// nothing in the chain is eligible yet, including the seed version
	// reader itself still needs.
	reclaimed := dt.Vacuum(reader.BeginTS())
	require.Equal(t, 0, reclaimed)

	out := init.NewRow()
	require.True(t, dt.Select(reader, slot, out))
	require.Equal(t, int32(0), getInt32(out, 2), "reader predates the update and must still resolve the seed version")
}
