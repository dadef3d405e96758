package block

import "sort"

// ColumnID is the physical identifier a block layout assigns to a
// column. It may differ from the column's catalog OID: the layout is
// free to reorder attributes for alignment, and the SQL-table wrapper
// owns the OID<->ColumnID translation.
type ColumnID uint16

// InvalidColumnID never names a real column.
const InvalidColumnID ColumnID = 0

// Column describes one attribute of a layout, prior to packing.
type Column struct {
	ID     ColumnID
	Size   uint16 // width in bytes; ignored when Varlen is true
	Varlen bool
}

// VarlenEntrySize is the fixed width a variable-length column occupies
// inline in a slot. The source this is modeled on packs a length, an
// inline/pointer discriminator, and a pointer into one word; Go's slice
// header already carries a pointer and length, so the logical entry
// (Size + backing []byte) is kept instead of that bit-packed union.
const VarlenEntrySize = 24

// VarlenEntry is the in-slot representation of a varlen column. Its
// Value slice aliases the block's backing array for inline payloads;
// callers that need the payload to outlive the slot must copy it.
type VarlenEntry struct {
	Size  uint32
	Value []byte
}

// Layout precomputes, for a fixed set of columns, the offset and width
// of each column's bytes inside a slot plus the offset of the per-slot
// null bitmap. A Layout is immutable once built and safe to share
// across every block it backs.
type Layout struct {
	columns      []ColumnID
	index        map[ColumnID]int
	sizes        map[ColumnID]uint16
	varlen       map[ColumnID]bool
	offsets      map[ColumnID]uint32
	nullBitmapAt uint32
	nullBitmapSz uint32
	slotSize     uint32
}

// NewLayout canonicalizes column order (fixed-width columns first,
// widest first, varlens last) and computes the packed slot size.
func NewLayout(cols []Column) *Layout {
	sorted := make([]Column, len(cols))
	copy(sorted, cols)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Varlen != sorted[j].Varlen {
			return !sorted[i].Varlen
		}
		return sorted[i].Size > sorted[j].Size
	})

	l := &Layout{
		index:   make(map[ColumnID]int, len(cols)),
		sizes:   make(map[ColumnID]uint16, len(cols)),
		varlen:  make(map[ColumnID]bool, len(cols)),
		offsets: make(map[ColumnID]uint32, len(cols)),
	}
	l.nullBitmapAt = 0
	l.nullBitmapSz = uint32((len(cols) + 7) / 8)

	offset := l.nullBitmapSz
	for i, c := range sorted {
		l.columns = append(l.columns, c.ID)
		l.index[c.ID] = i
		l.sizes[c.ID] = c.Size
		l.varlen[c.ID] = c.Varlen
		l.offsets[c.ID] = offset
		if c.Varlen {
			offset += VarlenEntrySize
		} else {
			offset += uint32(c.Size)
		}
	}
	l.slotSize = offset
	return l
}

// SlotSize is the number of bytes one tuple occupies, including its
// null bitmap.
func (l *Layout) SlotSize() uint32 { return l.slotSize }

// ColumnIDs returns columns in packed (storage) order.
func (l *Layout) ColumnIDs() []ColumnID { return l.columns }

// NumColumns is the number of columns in the layout.
func (l *Layout) NumColumns() int { return len(l.columns) }

// IsVarlen reports whether col is stored as a VarlenEntry.
func (l *Layout) IsVarlen(col ColumnID) bool { return l.varlen[col] }

// ColumnSize returns the fixed width of col, or VarlenEntrySize if col
// is variable-length.
func (l *Layout) ColumnSize(col ColumnID) uint16 {
	if l.varlen[col] {
		return VarlenEntrySize
	}
	return l.sizes[col]
}

// Offset returns col's byte offset within a slot.
func (l *Layout) Offset(col ColumnID) (uint32, bool) {
	o, ok := l.offsets[col]
	return o, ok
}

// bitIndex returns col's position in the null bitmap, used by
// Block.NullBit.
func (l *Layout) bitIndex(col ColumnID) (int, bool) {
	i, ok := l.index[col]
	return i, ok
}

// NullBitmapSize is the number of bytes the per-slot null bitmap
// occupies.
func (l *Layout) NullBitmapSize() uint32 { return l.nullBitmapSz }
