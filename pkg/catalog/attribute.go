package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	attColColnum      block.ColumnID = 1
	attColRelid       block.ColumnID = 2
	attColName        block.ColumnID = 3
	attColTypeid      block.ColumnID = 4
	attColLen         block.ColumnID = 5
	attColNotNull     block.ColumnID = 6
	attColDefaultExpr block.ColumnID = 7
	attColDefaultSrc  block.ColumnID = 8
)

func attributeLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: attColColnum, Size: 4},
		{ID: attColRelid, Size: 4},
		{ID: attColName, Size: nameWidth},
		{ID: attColTypeid, Size: 4},
		{ID: attColLen, Size: 4},
		{ID: attColNotNull, Size: 1},
		{ID: attColDefaultExpr, Size: 8},
		{ID: attColDefaultSrc, Size: defaultSrcWidth},
	})
}

var attributeColumnIDs = []block.ColumnID{
	attColColnum, attColRelid, attColName, attColTypeid,
	attColLen, attColNotNull, attColDefaultExpr, attColDefaultSrc,
}

// AttributeRow is a decoded pg_attribute tuple. DefaultExpr is an
// opaque pointer handle to a parsed default-value expression (owned
// outside the catalog, per spec.md's out-of-scope expression
// representation); DefaultSrc carries the same default serialized as
// JSON, which is all relstore itself ever inspects.
type AttributeRow struct {
	Colnum      int32
	Relid       OID
	Name        string
	Typeid      OID
	Len         int32
	NotNull     bool
	DefaultExpr uint64
	DefaultSrc  string
}

func (r AttributeRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(attColColnum), uint32(r.Colnum))
	binary.LittleEndian.PutUint32(out.Access(attColRelid), r.Relid)
	putFixedText(out.Access(attColName), r.Name)
	binary.LittleEndian.PutUint32(out.Access(attColTypeid), r.Typeid)
	binary.LittleEndian.PutUint32(out.Access(attColLen), uint32(r.Len))
	notNull := byte(0)
	if r.NotNull {
		notNull = 1
	}
	out.Access(attColNotNull)[0] = notNull
	binary.LittleEndian.PutUint64(out.Access(attColDefaultExpr), r.DefaultExpr)
	putFixedText(out.Access(attColDefaultSrc), r.DefaultSrc)
	return out
}

func attributeFromRow(r *row.ProjectedRow) AttributeRow {
	return AttributeRow{
		Colnum:      int32(binary.LittleEndian.Uint32(readCol(r, attColColnum))),
		Relid:       binary.LittleEndian.Uint32(readCol(r, attColRelid)),
		Name:        getFixedText(readCol(r, attColName)),
		Typeid:      binary.LittleEndian.Uint32(readCol(r, attColTypeid)),
		Len:         int32(binary.LittleEndian.Uint32(readCol(r, attColLen))),
		NotNull:     readCol(r, attColNotNull)[0] != 0,
		DefaultExpr: binary.LittleEndian.Uint64(readCol(r, attColDefaultExpr)),
		DefaultSrc:  getFixedText(readCol(r, attColDefaultSrc)),
	}
}
