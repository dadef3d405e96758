package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	clsColOID       block.ColumnID = 1
	clsColName      block.ColumnID = 2
	clsColNamespace block.ColumnID = 3
	clsColKind      block.ColumnID = 4
	clsColSchemaPtr block.ColumnID = 5
	clsColObjectPtr block.ColumnID = 6
	clsColNextColOID block.ColumnID = 7
)

func classLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: clsColOID, Size: 4},
		{ID: clsColName, Size: nameWidth},
		{ID: clsColNamespace, Size: 4},
		{ID: clsColKind, Size: 1},
		{ID: clsColSchemaPtr, Size: 8},
		{ID: clsColObjectPtr, Size: 8},
		{ID: clsColNextColOID, Size: 4},
	})
}

var classColumnIDs = []block.ColumnID{
	clsColOID, clsColName, clsColNamespace, clsColKind,
	clsColSchemaPtr, clsColObjectPtr, clsColNextColOID,
}

// ClassRow is a decoded pg_class tuple. SchemaPtr and ObjectPtr are
// opaque handles (a database.Handle, numerically) published by
// SetTablePointer/SetIndexPointer; zero means unpublished.
type ClassRow struct {
	OID         OID
	Name        string
	Namespace   OID
	Kind        ClassKind
	SchemaPtr   uint64
	ObjectPtr   uint64
	NextColOID  uint32
}

func (r ClassRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(clsColOID), r.OID)
	putFixedText(out.Access(clsColName), r.Name)
	binary.LittleEndian.PutUint32(out.Access(clsColNamespace), r.Namespace)
	out.Access(clsColKind)[0] = byte(r.Kind)
	binary.LittleEndian.PutUint64(out.Access(clsColSchemaPtr), r.SchemaPtr)
	binary.LittleEndian.PutUint64(out.Access(clsColObjectPtr), r.ObjectPtr)
	binary.LittleEndian.PutUint32(out.Access(clsColNextColOID), r.NextColOID)
	return out
}

func classFromRow(r *row.ProjectedRow) ClassRow {
	return ClassRow{
		OID:        binary.LittleEndian.Uint32(readCol(r, clsColOID)),
		Name:       getFixedText(readCol(r, clsColName)),
		Namespace:  binary.LittleEndian.Uint32(readCol(r, clsColNamespace)),
		Kind:       ClassKind(readCol(r, clsColKind)[0]),
		SchemaPtr:  binary.LittleEndian.Uint64(readCol(r, clsColSchemaPtr)),
		ObjectPtr:  binary.LittleEndian.Uint64(readCol(r, clsColObjectPtr)),
		NextColOID: binary.LittleEndian.Uint32(readCol(r, clsColNextColOID)),
	}
}
