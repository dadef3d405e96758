package catalog

import (
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

// readCol fetches col's bytes for decoding without marking it non-null
// as row.ProjectedRow.Access would.
func readCol(r *row.ProjectedRow, col block.ColumnID) []byte {
	b, _ := r.AccessWithNullCheck(col)
	return b
}

// Fixed-width text columns. A full varlen heap (payloads living outside
// the slot, addressed by an in-slot length+pointer entry) is out of
// scope for the catalog: every name and default-expression-source
// column the catalog stores is short and bounded, so each is packed as
// a NUL-padded fixed-width byte array instead of wiring block.Layout's
// VarlenEntry machinery for a handful of always-short strings.

const (
	nameWidth       = 64
	defaultSrcWidth = 256
)

func putFixedText(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

func getFixedText(buf []byte) string {
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}
