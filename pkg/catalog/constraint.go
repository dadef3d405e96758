package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	conColOID          block.ColumnID = 1
	conColName         block.ColumnID = 2
	conColNamespace    block.ColumnID = 3
	conColRelid        block.ColumnID = 4
	conColIndexid      block.ColumnID = 5
	conColForeignRelid block.ColumnID = 6
)

func constraintLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: conColOID, Size: 4},
		{ID: conColName, Size: nameWidth},
		{ID: conColNamespace, Size: 4},
		{ID: conColRelid, Size: 4},
		{ID: conColIndexid, Size: 4},
		{ID: conColForeignRelid, Size: 4},
	})
}

var constraintColumnIDs = []block.ColumnID{
	conColOID, conColName, conColNamespace, conColRelid, conColIndexid, conColForeignRelid,
}

// ConstraintRow is a decoded pg_constraint tuple. Only the schema and
// indexes pg_constraint needs to be self-describing are defined here;
// DDL that creates constraints is not part of this layer's contract,
// but rows inserted directly (e.g. by a higher layer) are queryable
// through GetConstraints/GetConstraint.
type ConstraintRow struct {
	OID          OID
	Name         string
	Namespace    OID
	Relid        OID
	Indexid      OID
	ForeignRelid OID
}

func (r ConstraintRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(conColOID), r.OID)
	putFixedText(out.Access(conColName), r.Name)
	binary.LittleEndian.PutUint32(out.Access(conColNamespace), r.Namespace)
	binary.LittleEndian.PutUint32(out.Access(conColRelid), r.Relid)
	binary.LittleEndian.PutUint32(out.Access(conColIndexid), r.Indexid)
	binary.LittleEndian.PutUint32(out.Access(conColForeignRelid), r.ForeignRelid)
	return out
}

func constraintFromRow(r *row.ProjectedRow) ConstraintRow {
	return ConstraintRow{
		OID:          binary.LittleEndian.Uint32(readCol(r, conColOID)),
		Name:         getFixedText(readCol(r, conColName)),
		Namespace:    binary.LittleEndian.Uint32(readCol(r, conColNamespace)),
		Relid:        binary.LittleEndian.Uint32(readCol(r, conColRelid)),
		Indexid:      binary.LittleEndian.Uint32(readCol(r, conColIndexid)),
		ForeignRelid: binary.LittleEndian.Uint32(readCol(r, conColForeignRelid)),
	}
}
