package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	nsColOID  block.ColumnID = 1
	nsColName block.ColumnID = 2
)

func namespaceLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: nsColOID, Size: 4},
		{ID: nsColName, Size: nameWidth},
	})
}

var namespaceColumnIDs = []block.ColumnID{nsColOID, nsColName}

// NamespaceRow is a decoded pg_namespace tuple.
type NamespaceRow struct {
	OID  OID
	Name string
}

func (r NamespaceRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(nsColOID), r.OID)
	putFixedText(out.Access(nsColName), r.Name)
	return out
}

func namespaceFromRow(r *row.ProjectedRow) NamespaceRow {
	return NamespaceRow{
		OID:  binary.LittleEndian.Uint32(readCol(r, nsColOID)),
		Name: getFixedText(readCol(r, nsColName)),
	}
}
