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

func TestOrderedScanAscendingReturnsKeyOrder(t *testing.T) {
	dt, m := newTestTable()
	idx := NewOrdered(dt)

	var slots [5]table.Slot
	for i := range slots {
		slots[i] = insertRow(t, dt, m)
		idx.Insert(NewCompactIntsKey(int64(i)), slots[i])
	}

	reader := m.Begin()
	got := idx.ScanAscending(reader, nil, nil, 0)
	require.Len(t, got, 5)
	for i, s := range got {
		require.Equal(t, slots[i].Offset(), s.Offset())
	}
}

func TestOrderedScanDescendingReturnsReverseKeyOrder(t *testing.T) {
	dt, m := newTestTable()
	idx := NewOrdered(dt)

	var slots [5]table.Slot
	for i := range slots {
		slots[i] = insertRow(t, dt, m)
		idx.Insert(NewCompactIntsKey(int64(i)), slots[i])
	}

	reader := m.Begin()
	got := idx.ScanDescending(reader, nil, nil, 0)
	require.Len(t, got, 5)
	for i, s := range got {
		require.Equal(t, slots[len(slots)-1-i].Offset(), s.Offset())
	}
}

func TestOrderedScanAscendingRespectsBoundsAndLimit(t *testing.T) {
	dt, m := newTestTable()
	idx := NewOrdered(dt)

	for i := 0; i < 10; i++ {
		s := insertRow(t, dt, m)
		idx.Insert(NewCompactIntsKey(int64(i)), s)
	}

	reader := m.Begin()
	lower := NewCompactIntsKey(2)
	upper := NewCompactIntsKey(7)
	got := idx.ScanAscending(reader, lower, upper, 0)
	require.Len(t, got, 5) // keys 2,3,4,5,6

	limited := idx.ScanAscending(reader, lower, upper, 2)
	require.Len(t, limited, 2)
}

func TestOrderedConditionalInsertEnforcesUniqueness(t *testing.T) {
	dt, m := newTestTable()
	idx := NewOrdered(dt)
	s1 := insertRow(t, dt, m)
	s2 := insertRow(t, dt, m)

	key := NewCompactIntsKey(42)
	inserted, satisfied := idx.ConditionalInsert(key, s1, func(table.Slot) bool { return false })
	require.True(t, inserted)
	require.False(t, satisfied)

	inserted, satisfied = idx.ConditionalInsert(key, s2, func(table.Slot) bool { return true })
	require.False(t, inserted)
	require.True(t, satisfied)
}

func TestOrderedDeleteRemovesExactEntry(t *testing.T) {
	dt, m := newTestTable()
	idx := NewOrdered(dt)
	s1 := insertRow(t, dt, m)
	s2 := insertRow(t, dt, m)

	key := NewCompactIntsKey(9)
	idx.Insert(key, s1)
	idx.Insert(key, s2)
	idx.Delete(key, s1)

	reader := m.Begin()
	got := idx.ScanKey(reader, key)
	require.Len(t, got, 1)
	require.Equal(t, s2.Offset(), got[0].Offset())
}

func TestOrderedScanFiltersDeletedSlot(t *testing.T) {
	layout := block.NewLayout([]block.Column{{ID: 1, Size: 4}})
	dt := table.New(1, layout, layout.SlotSize()*4, 4)
	m := txn.NewManager(nil)
	idx := NewOrdered(dt)

	writer := m.Begin()
	init := row.NewInitializer(layout, []block.ColumnID{1})
	slot := dt.Insert(writer, init.NewRow())
	m.Commit(context.Background(), writer, nil, nil)
	idx.Insert(NewCompactIntsKey(1), slot)

	deleter := m.Begin()
	require.NoError(t, dt.Delete(deleter, slot))
	m.Commit(context.Background(), deleter, nil, nil)

	reader := m.Begin()
	require.Empty(t, idx.ScanKey(reader, NewCompactIntsKey(1)))
}
