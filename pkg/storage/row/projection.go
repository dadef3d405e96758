// Package row implements projected rows and projected columns: packed,
// self-describing buffers carrying a null bitmap and values for a
// chosen subset of a layout's columns, plus the initializer that
// precomputes their shape so allocation is a single slice make, no
// further layout math required per row.
package row

import (
	"sort"

	"github.com/cuemby/relstore/pkg/storage/block"
)

// Initializer precomputes the packed size of a projection over a fixed
// set of columns, in a canonical (layout-determined) order. It is
// immutable and safe to reuse across every row or column batch it
// builds.
type Initializer struct {
	columns      []block.ColumnID
	index        map[block.ColumnID]int
	sizes        map[block.ColumnID]uint16
	varlen       map[block.ColumnID]bool
	offsets      map[block.ColumnID]uint32
	nullBitmapSz uint32
	rowSize      uint32
}

// NewInitializer builds an Initializer over colIDs as they are defined
// in layout, after canonicalizing into (widest fixed-width first,
// varlens last) order, matching block.Layout's own packing rule so
// that copying between a block slot and a projected row is a flat
// per-column copy rather than a re-layout.
func NewInitializer(layout *block.Layout, colIDs []block.ColumnID) *Initializer {
	type col struct {
		id     block.ColumnID
		size   uint16
		varlen bool
	}
	cols := make([]col, len(colIDs))
	for i, id := range colIDs {
		cols[i] = col{id: id, size: layout.ColumnSize(id), varlen: layout.IsVarlen(id)}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].varlen != cols[j].varlen {
			return !cols[i].varlen
		}
		return cols[i].size > cols[j].size
	})

	init := &Initializer{
		index:   make(map[block.ColumnID]int, len(cols)),
		sizes:   make(map[block.ColumnID]uint16, len(cols)),
		varlen:  make(map[block.ColumnID]bool, len(cols)),
		offsets: make(map[block.ColumnID]uint32, len(cols)),
	}
	init.nullBitmapSz = uint32((len(cols) + 7) / 8)

	offset := init.nullBitmapSz
	for i, c := range cols {
		init.columns = append(init.columns, c.id)
		init.index[c.id] = i
		init.sizes[c.id] = c.size
		init.varlen[c.id] = c.varlen
		init.offsets[c.id] = offset
		if c.varlen {
			offset += block.VarlenEntrySize
		} else {
			offset += uint32(c.size)
		}
	}
	init.rowSize = offset
	return init
}

// RowSize is the number of bytes one ProjectedRow occupies.
func (init *Initializer) RowSize() uint32 { return init.rowSize }

// NumColumns is the number of columns in the projection.
func (init *Initializer) NumColumns() int { return len(init.columns) }

// ColumnIDs returns the projected columns in packed order.
func (init *Initializer) ColumnIDs() []block.ColumnID { return init.columns }

// InitializeRow carves a ProjectedRow out of buf when buf holds at
// least RowSize() bytes; a shorter buf is replaced by a freshly
// allocated one.
func (init *Initializer) InitializeRow(buf []byte) *ProjectedRow {
	if uint32(len(buf)) < init.rowSize {
		buf = make([]byte, init.rowSize)
	}
	return &ProjectedRow{init: init, buf: buf[:init.rowSize]}
}

// NewRow allocates and initializes a fresh ProjectedRow.
func (init *Initializer) NewRow() *ProjectedRow {
	return init.InitializeRow(make([]byte, init.rowSize))
}

// InitializeColumns carves a ProjectedColumns batch of up to maxTuples
// rows out of buf.
func (init *Initializer) InitializeColumns(buf []byte, maxTuples int) *ProjectedColumns {
	need := init.rowSize * uint32(maxTuples)
	if uint32(len(buf)) < need {
		buf = make([]byte, need)
	}
	return &ProjectedColumns{init: init, buf: buf[:need], maxTuples: maxTuples}
}

// NewColumns allocates and initializes a fresh ProjectedColumns batch.
func (init *Initializer) NewColumns(maxTuples int) *ProjectedColumns {
	return init.InitializeColumns(make([]byte, init.rowSize*uint32(maxTuples)), maxTuples)
}

func (init *Initializer) bitIndex(col block.ColumnID) (int, bool) {
	i, ok := init.index[col]
	return i, ok
}

func (init *Initializer) columnOffset(col block.ColumnID) (uint32, uint32, bool) {
	off, ok := init.offsets[col]
	if !ok {
		return 0, 0, false
	}
	width := uint32(init.sizes[col])
	if init.varlen[col] {
		width = block.VarlenEntrySize
	}
	return off, width, true
}
