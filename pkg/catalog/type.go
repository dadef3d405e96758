package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	typColOID       block.ColumnID = 1
	typColName      block.ColumnID = 2
	typColNamespace block.ColumnID = 3
	typColLen       block.ColumnID = 4
	typColByVal     block.ColumnID = 5
	typColKind      block.ColumnID = 6
)

func typeLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: typColOID, Size: 4},
		{ID: typColName, Size: nameWidth},
		{ID: typColNamespace, Size: 4},
		{ID: typColLen, Size: 4},
		{ID: typColByVal, Size: 1},
		{ID: typColKind, Size: 1},
	})
}

var typeColumnIDs = []block.ColumnID{
	typColOID, typColName, typColNamespace, typColLen, typColByVal, typColKind,
}

// TypeKind distinguishes the storage shape pg_type describes.
type TypeKind byte

const (
	TypeKindBase TypeKind = iota
)

// TypeRow is a decoded pg_type tuple.
type TypeRow struct {
	OID       OID
	Name      string
	Namespace OID
	Len       int32
	ByVal     bool
	Kind      TypeKind
}

func (r TypeRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(typColOID), r.OID)
	putFixedText(out.Access(typColName), r.Name)
	binary.LittleEndian.PutUint32(out.Access(typColNamespace), r.Namespace)
	binary.LittleEndian.PutUint32(out.Access(typColLen), uint32(r.Len))
	out.Access(typColByVal)[0] = boolByte(r.ByVal)
	out.Access(typColKind)[0] = byte(r.Kind)
	return out
}

func typeFromRow(r *row.ProjectedRow) TypeRow {
	return TypeRow{
		OID:       binary.LittleEndian.Uint32(readCol(r, typColOID)),
		Name:      getFixedText(readCol(r, typColName)),
		Namespace: binary.LittleEndian.Uint32(readCol(r, typColNamespace)),
		Len:       int32(binary.LittleEndian.Uint32(readCol(r, typColLen))),
		ByVal:     readCol(r, typColByVal)[0] != 0,
		Kind:      TypeKind(readCol(r, typColKind)[0]),
	}
}

// TypeWidth returns the physical width a built-in type occupies in a
// block.Column, and whether it is varlen, per spec.md §6's built-in
// type-tag table. It is the one place that table matters outside
// pg_type's own rows, used by any component (sqltable callers,
// cmd/relstored's bench command) that must turn a ColumnSchema's
// Typeid into a block.Column before calling block.NewLayout.
func TypeWidth(typeid OID) (size uint16, varlen bool) {
	switch typeid {
	case TypeBooleanOID, TypeTinyintOID:
		return 1, false
	case TypeSmallintOID:
		return 2, false
	case TypeIntegerOID, TypeDateOID:
		return 4, false
	case TypeBigintOID, TypeDecimalOID, TypeTimestampOID:
		return 8, false
	case TypeVarcharOID, TypeVarbinaryOID:
		return 0, true
	default:
		return 0, true
	}
}

// builtinTypes are the rows bootstrap inserts into pg_type.
var builtinTypes = []TypeRow{
	{OID: TypeBooleanOID, Name: "BOOLEAN", Namespace: NamespacePgCatalogOID, Len: 1, ByVal: true},
	{OID: TypeTinyintOID, Name: "TINYINT", Namespace: NamespacePgCatalogOID, Len: 1, ByVal: true},
	{OID: TypeSmallintOID, Name: "SMALLINT", Namespace: NamespacePgCatalogOID, Len: 2, ByVal: true},
	{OID: TypeIntegerOID, Name: "INTEGER", Namespace: NamespacePgCatalogOID, Len: 4, ByVal: true},
	{OID: TypeBigintOID, Name: "BIGINT", Namespace: NamespacePgCatalogOID, Len: 8, ByVal: true},
	{OID: TypeDecimalOID, Name: "DECIMAL", Namespace: NamespacePgCatalogOID, Len: 8, ByVal: true},
	{OID: TypeTimestampOID, Name: "TIMESTAMP", Namespace: NamespacePgCatalogOID, Len: 8, ByVal: true},
	{OID: TypeDateOID, Name: "DATE", Namespace: NamespacePgCatalogOID, Len: 4, ByVal: true},
	{OID: TypeVarcharOID, Name: "VARCHAR", Namespace: NamespacePgCatalogOID, Len: -1, ByVal: false},
	{OID: TypeVarbinaryOID, Name: "VARBINARY", Namespace: NamespacePgCatalogOID, Len: -1, ByVal: false},
}
