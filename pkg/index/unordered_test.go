package index

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
	"github.com/stretchr/testify/require"
)

func newTestTable() (*table.DataTable, *txn.Manager) {
	layout := block.NewLayout([]block.Column{{ID: 1, Size: 4}})
	return table.New(1, layout, layout.SlotSize()*4, 4), txn.NewManager(nil)
}

func insertRow(t *testing.T, dt *table.DataTable, m *txn.Manager) table.Slot {
	writer := m.Begin()
	init := row.NewInitializer(dt.Layout(), []block.ColumnID{1})
	slot := dt.Insert(writer, init.NewRow())
	m.Commit(context.Background(), writer, nil, nil)
	return slot
}

func TestUnorderedInsertAndScanKey(t *testing.T) {
	dt, m := newTestTable()
	idx := NewUnordered(dt)
	slot := insertRow(t, dt, m)

	key := NewGenericKey([]byte("k1"))
	require.True(t, idx.Insert(key, slot))

	reader := m.Begin()
	got := idx.ScanKey(reader, key)
	require.Len(t, got, 1)
	require.Equal(t, slot.BlockID(), got[0].BlockID())
	require.Equal(t, slot.Offset(), got[0].Offset())
}

func TestUnorderedInsertUniqueRejectsSecondEntry(t *testing.T) {
	dt, m := newTestTable()
	idx := NewUnordered(dt)
	s1 := insertRow(t, dt, m)
	s2 := insertRow(t, dt, m)

	key := NewGenericKey([]byte("u1"))
	require.True(t, idx.InsertUnique(key, s1))
	require.False(t, idx.InsertUnique(key, s2))
}

// S3. Conditional insert must see the already-inserted slot and refuse
// a second insert under the same key once the predicate matches it.
func TestUnorderedConditionalInsertEnforcesUniqueness(t *testing.T) {
	dt, m := newTestTable()
	idx := NewUnordered(dt)
	s1 := insertRow(t, dt, m)
	s2 := insertRow(t, dt, m)

	key := NewGenericKey([]byte("c1"))
	alwaysMatch := func(table.Slot) bool { return true }

	inserted, satisfied := idx.ConditionalInsert(key, s1, func(table.Slot) bool { return false })
	require.True(t, inserted)
	require.False(t, satisfied)

	inserted, satisfied = idx.ConditionalInsert(key, s2, alwaysMatch)
	require.False(t, inserted)
	require.True(t, satisfied)
}

func TestUnorderedDeleteRemovesExactPair(t *testing.T) {
	dt, m := newTestTable()
	idx := NewUnordered(dt)
	s1 := insertRow(t, dt, m)
	s2 := insertRow(t, dt, m)

	key := NewGenericKey([]byte("d1"))
	idx.Insert(key, s1)
	idx.Insert(key, s2)
	idx.Delete(key, s1)

	reader := m.Begin()
	got := idx.ScanKey(reader, key)
	require.Len(t, got, 1)
	require.Equal(t, s2.Offset(), got[0].Offset())
}

func TestUnorderedScanKeyFiltersUncommittedInsert(t *testing.T) {
	layout := block.NewLayout([]block.Column{{ID: 1, Size: 4}})
	dt := table.New(1, layout, layout.SlotSize()*4, 4)
	m := txn.NewManager(nil)
	idx := NewUnordered(dt)

	writer := m.Begin()
	init := row.NewInitializer(layout, []block.ColumnID{1})
	slot := dt.Insert(writer, init.NewRow())
	key := NewGenericKey([]byte("uncommitted"))
	idx.Insert(key, slot)

	concurrent := m.Begin()
	require.Empty(t, idx.ScanKey(concurrent, key))

	m.Commit(context.Background(), writer, nil, nil)
	require.Empty(t, idx.ScanKey(concurrent, key), "already-running reader must not retroactively see a later commit")
}
