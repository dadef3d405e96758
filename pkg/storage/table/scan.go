package table

import (
	"github.com/cuemby/relstore/pkg/metrics"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/txn"
)

// Iterator walks every slot ever reserved across a table's blocks, in
// block-allocation then slot-index order. It carries no visibility
// filtering of its own — Scan applies that — and never observes slots
// reserved in a given block after the iterator first reached that
// block, since it snapshots each block's insert_head once.
type Iterator struct {
	blocks   []*block.Block
	blockIdx int
	slotIdx  uint32
	headSnap uint32
}

// Begin returns an iterator positioned at the first slot of the
// table's first block.
func (dt *DataTable) Begin() *Iterator {
	it := &Iterator{blocks: dt.store.Blocks()}
	if len(it.blocks) > 0 {
		it.headSnap = it.blocks[0].InsertHead()
	}
	return it
}

// Done reports whether the iterator has passed the last reserved slot
// of the last block — the end() sentinel.
func (it *Iterator) Done() bool {
	for it.blockIdx < len(it.blocks) && it.slotIdx >= it.headSnap {
		it.blockIdx++
		it.slotIdx = 0
		if it.blockIdx < len(it.blocks) {
			it.headSnap = it.blocks[it.blockIdx].InsertHead()
		}
	}
	return it.blockIdx >= len(it.blocks)
}

// Next returns the current slot and advances the iterator. Callers
// must check Done first.
func (it *Iterator) Next() Slot {
	b := it.blocks[it.blockIdx]
	s := Slot{block: b, offset: it.slotIdx}
	it.slotIdx++
	return s
}

// Scan fills out with up to out.MaxTuples() tuples visible to t,
// starting at it and advancing it past the last slot examined. It
// returns the number of tuples materialized, which is less than
// out.MaxTuples() only when the iterator was exhausted.
func (dt *DataTable) Scan(t *txn.Txn, it *Iterator, out *row.ProjectedColumns) int {
	out.Reset()
	init := row.NewInitializer(dt.layout, out.ColumnIDs())

	count := 0
	for !it.Done() && count < out.MaxTuples() {
		slot := it.Next()
		candidate := init.NewRow()
		if dt.Select(t, slot, candidate) {
			out.Append(candidate)
			count++
		}
	}
	metrics.ScanRowsReturnedTotal.Add(float64(count))
	return count
}
