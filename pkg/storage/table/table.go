// Package table implements the data table: fixed-layout block storage
// plus the MVCC version chain that gives every tuple slot a history of
// before-images, used to reconstruct the snapshot any transaction is
// entitled to see.
package table

import (
	"strconv"
	"sync"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/logsink"
	"github.com/cuemby/relstore/pkg/metrics"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/txn"
)

// DataTable owns one block store for a single layout and the version
// chains layered over it. oid identifies the owning catalog table for
// metrics and log records; it is not interpreted otherwise.
type DataTable struct {
	oid    uint32
	layout *block.Layout
	store  *block.Store

	headsMu sync.RWMutex
	heads   map[uint64]*chainHeads
}

// New builds a DataTable over layout, backed by a fresh block store.
func New(oid uint32, layout *block.Layout, blockSize uint32, reuseLimit int) *DataTable {
	return &DataTable{
		oid:    oid,
		layout: layout,
		store:  block.NewStore(layout, blockSize, reuseLimit),
		heads:  make(map[uint64]*chainHeads),
	}
}

// Layout returns the table's block layout.
func (dt *DataTable) Layout() *block.Layout { return dt.layout }

func (dt *DataTable) headsFor(b *block.Block) *chainHeads {
	dt.headsMu.RLock()
	h, ok := dt.heads[b.ID]
	dt.headsMu.RUnlock()
	if ok {
		return h
	}

	dt.headsMu.Lock()
	defer dt.headsMu.Unlock()
	if h, ok = dt.heads[b.ID]; ok {
		return h
	}
	h = newChainHeads(b.NumSlots())
	dt.heads[b.ID] = h
	return h
}

func columnIDsToUint16(cols []block.ColumnID) []uint16 {
	out := make([]uint16, len(cols))
	for i, c := range cols {
		out[i] = uint16(c)
	}
	return out
}

// applyToSlot writes every column src carries into the slot's physical
// storage, updating null bits as it goes.
func applyToSlot(b *block.Block, offset uint32, src *row.ProjectedRow) {
	for _, col := range src.ColumnIDs() {
		if src.IsNull(col) {
			b.NullBit(offset, col).SetNull()
			continue
		}
		b.NullBit(offset, col).ClearNull()
		data, _ := src.AccessWithNullCheck(col)
		copy(b.Access(offset, col), data)
	}
}

// readFromSlot copies the slot's current physical bytes into dst, for
// the columns dst was initialized with.
func readFromSlot(b *block.Block, offset uint32, dst *row.ProjectedRow) {
	for _, col := range dst.ColumnIDs() {
		if b.NullBit(offset, col).IsNull() {
			dst.SetNull(col)
			continue
		}
		copy(dst.Access(col), b.Access(offset, col))
	}
}

// applyBeforeImage reverts out's columns that before touched, restoring
// the value out held immediately prior to that undo record's write.
func applyBeforeImage(out *row.ProjectedRow, before *row.ProjectedRow) {
	for _, col := range before.ColumnIDs() {
		if before.IsNull(col) {
			out.SetNull(col)
			continue
		}
		data, _ := before.AccessWithNullCheck(col)
		copy(out.Access(col), data)
	}
}

func visibleTo(installer *txn.Txn, reader *txn.Txn) (visible bool, stillLive bool) {
	if installer == reader {
		return true, false
	}
	_, done := installer.FinishTS()
	if !done {
		return false, true
	}
	return installer.IsVisibleTo(reader), false
}

// Insert reserves a fresh slot, writes redo's columns into it, and
// links a version-chain entry marking it owned by t. The slot stays
// invisible to every other transaction until t commits.
func (dt *DataTable) Insert(t *txn.Txn, redo *row.ProjectedRow) Slot {
	b, offset := dt.store.Reserve()
	b.MarkPresent(offset)
	applyToSlot(b, offset, redo)

	heads := dt.headsFor(b)
	rec := &UndoRecord{installer: t}
	heads.arr[offset].Store(rec)

	t.RegisterUndo(func() {
		heads.arr[offset].CompareAndSwap(rec, nil)
	})
	t.StageWrite(logsink.Record{
		TableOID:  dt.oid,
		BlockID:   b.ID,
		Offset:    offset,
		ColumnIDs: columnIDsToUint16(redo.ColumnIDs()),
		Data:      append([]byte(nil), redo.Bytes()...),
	})
	metrics.TuplesInsertedTotal.WithLabelValues(strconv.FormatUint(uint64(dt.oid), 10)).Inc()

	return Slot{block: b, offset: offset}
}

// Select materializes the version of slot visible to t into out,
// reporting false if no visible version exists (not yet committed to
// t, or deleted as of t's snapshot).
func (dt *DataTable) Select(t *txn.Txn, slot Slot, out *row.ProjectedRow) bool {
	heads := dt.headsFor(slot.block)
	head := heads.arr[slot.offset].Load()
	if head == nil {
		return false
	}

	readFromSlot(slot.block, slot.offset, out)

	cur := head
	for cur != nil {
		visible, _ := visibleTo(cur.installer, t)
		if visible {
			return !cur.tombstone
		}
		if cur.before != nil {
			applyBeforeImage(out, cur.before)
		}
		cur = cur.next.Load()
	}
	return false
}

// IsVisible reports whether slot has any version visible to t, without
// materializing column data. Used by index scans, which only need a
// cheap presence check against the data table's MVCC state.
func (dt *DataTable) IsVisible(t *txn.Txn, slot Slot) bool {
	heads := dt.headsFor(slot.block)
	cur := heads.arr[slot.offset].Load()
	for cur != nil {
		if visible, _ := visibleTo(cur.installer, t); visible {
			return !cur.tombstone
		}
		cur = cur.next.Load()
	}
	return false
}

// Update applies redo in place if t's snapshot may write the slot,
// returning ErrWriteWriteConflict (and setting t's must-abort flag)
// otherwise.
func (dt *DataTable) Update(t *txn.Txn, slot Slot, redo *row.ProjectedRow) error {
	heads := dt.headsFor(slot.block)
	headPtr := &heads.arr[slot.offset]

	for {
		cur := headPtr.Load()
		if cur != nil {
			visible, stillLive := visibleTo(cur.installer, t)
			if stillLive || !visible {
				t.SetMustAbort()
				metrics.WriteConflictsTotal.Inc()
				return errs.ErrWriteWriteConflict
			}
			if cur.tombstone {
				t.SetMustAbort()
				metrics.WriteConflictsTotal.Inc()
				return errs.ErrWriteWriteConflict
			}
		}

		before := row.NewInitializer(dt.layout, redo.ColumnIDs()).NewRow()
		readFromSlot(slot.block, slot.offset, before)

		rec := &UndoRecord{installer: t, before: before}
		rec.next.Store(cur)
		if !headPtr.CompareAndSwap(cur, rec) {
			continue
		}

		b, offset := slot.block, slot.offset
		applyToSlot(b, offset, redo)
		t.RegisterUndo(func() {
			applyToSlot(b, offset, before)
			headPtr.CompareAndSwap(rec, cur)
		})
		t.StageWrite(logsink.Record{
			TableOID:  dt.oid,
			BlockID:   b.ID,
			Offset:    offset,
			ColumnIDs: columnIDsToUint16(redo.ColumnIDs()),
			Data:      append([]byte(nil), redo.Bytes()...),
		})
		return nil
	}
}

// Delete installs a tombstone, subject to the same conflict rule as
// Update.
func (dt *DataTable) Delete(t *txn.Txn, slot Slot) error {
	heads := dt.headsFor(slot.block)
	headPtr := &heads.arr[slot.offset]

	for {
		cur := headPtr.Load()
		if cur != nil {
			visible, stillLive := visibleTo(cur.installer, t)
			if stillLive || !visible || cur.tombstone {
				t.SetMustAbort()
				metrics.WriteConflictsTotal.Inc()
				return errs.ErrWriteWriteConflict
			}
		}

		rec := &UndoRecord{installer: t, tombstone: true}
		rec.next.Store(cur)
		if !headPtr.CompareAndSwap(cur, rec) {
			continue
		}

		t.RegisterUndo(func() {
			headPtr.CompareAndSwap(rec, cur)
		})
		t.StageDelete(logsink.Record{
			TableOID: dt.oid,
			BlockID:  slot.block.ID,
			Offset:   slot.offset,
		})
		return nil
	}
}
