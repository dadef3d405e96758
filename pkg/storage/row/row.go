package row

import (
	"fmt"

	"github.com/cuemby/relstore/pkg/storage/block"
)

// ProjectedRow is a single packed tuple: a null bitmap followed by the
// values of the columns its Initializer was built for, in that
// initializer's canonical order.
type ProjectedRow struct {
	init *Initializer
	buf  []byte
}

// NumColumns is the number of columns carried by the row.
func (r *ProjectedRow) NumColumns() int { return r.init.NumColumns() }

// ColumnIDs returns the row's columns in storage order.
func (r *ProjectedRow) ColumnIDs() []block.ColumnID { return r.init.ColumnIDs() }

// Bytes exposes the row's raw backing buffer, e.g. to hand to a log
// sink record.
func (r *ProjectedRow) Bytes() []byte { return r.buf }

func (r *ProjectedRow) nullBit(col block.ColumnID) block.NullBit {
	bit, ok := r.init.bitIndex(col)
	if !ok {
		panic(fmt.Sprintf("row: column %d not in projection", col))
	}
	return block.NewNullBit(r.buf[:r.init.nullBitmapSz], bit)
}

// Access returns the byte range for col, clearing its null bit (the
// caller is about to write a non-null value).
func (r *ProjectedRow) Access(col block.ColumnID) []byte {
	r.nullBit(col).ClearNull()
	off, width, ok := r.init.columnOffset(col)
	if !ok {
		panic(fmt.Sprintf("row: column %d not in projection", col))
	}
	return r.buf[off : off+width]
}

// AccessWithNullCheck returns (bytes, isNull). When isNull is true the
// returned slice's contents are undefined.
func (r *ProjectedRow) AccessWithNullCheck(col block.ColumnID) ([]byte, bool) {
	nb := r.nullBit(col)
	off, width, ok := r.init.columnOffset(col)
	if !ok {
		panic(fmt.Sprintf("row: column %d not in projection", col))
	}
	return r.buf[off : off+width], nb.IsNull()
}

// SetNull marks col null without touching its bytes.
func (r *ProjectedRow) SetNull(col block.ColumnID) { r.nullBit(col).SetNull() }

// IsNull reports whether col is currently null.
func (r *ProjectedRow) IsNull(col block.ColumnID) bool { return r.nullBit(col).IsNull() }

// ProjectedColumns is a batch form of ProjectedRow: up to MaxTuples
// rows for the same column set, laid out row-major, used by scans.
type ProjectedColumns struct {
	init      *Initializer
	buf       []byte
	maxTuples int
	numTuples int
}

// MaxTuples is the batch's capacity.
func (c *ProjectedColumns) MaxTuples() int { return c.maxTuples }

// NumTuples is the number of rows currently materialized in the batch.
func (c *ProjectedColumns) NumTuples() int { return c.numTuples }

// Reset empties the batch so a scan can refill it.
func (c *ProjectedColumns) Reset() { c.numTuples = 0 }

// ColumnIDs returns the batch's columns in storage order.
func (c *ProjectedColumns) ColumnIDs() []block.ColumnID { return c.init.ColumnIDs() }

// RowAt returns a ProjectedRow view over tuple i's slice of the batch.
// The view aliases the batch's backing buffer.
func (c *ProjectedColumns) RowAt(i int) *ProjectedRow {
	if i < 0 || i >= c.maxTuples {
		panic("row: tuple index out of range")
	}
	start := uint32(i) * c.init.rowSize
	return &ProjectedRow{init: c.init, buf: c.buf[start : start+c.init.rowSize]}
}

// Append copies src into the next free slot of the batch and returns
// false if the batch is already full.
func (c *ProjectedColumns) Append(src *ProjectedRow) bool {
	if c.numTuples >= c.maxTuples {
		return false
	}
	dst := c.RowAt(c.numTuples)
	copy(dst.buf, src.buf)
	c.numTuples++
	return true
}
