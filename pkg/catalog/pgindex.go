package catalog

import (
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
)

const (
	idxColIndoid      block.ColumnID = 1
	idxColRelid       block.ColumnID = 2
	idxColIsUnique    block.ColumnID = 3
	idxColIsPrimary   block.ColumnID = 4
	idxColIsExclusion block.ColumnID = 5
	idxColIsImmediate block.ColumnID = 6
	idxColIsValid     block.ColumnID = 7
	idxColIsReady     block.ColumnID = 8
	idxColIsLive      block.ColumnID = 9
)

func pgIndexLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: idxColIndoid, Size: 4},
		{ID: idxColRelid, Size: 4},
		{ID: idxColIsUnique, Size: 1},
		{ID: idxColIsPrimary, Size: 1},
		{ID: idxColIsExclusion, Size: 1},
		{ID: idxColIsImmediate, Size: 1},
		{ID: idxColIsValid, Size: 1},
		{ID: idxColIsReady, Size: 1},
		{ID: idxColIsLive, Size: 1},
	})
}

var pgIndexColumnIDs = []block.ColumnID{
	idxColIndoid, idxColRelid, idxColIsUnique, idxColIsPrimary,
	idxColIsExclusion, idxColIsImmediate, idxColIsValid, idxColIsReady, idxColIsLive,
}

// PgIndexRow is a decoded pg_index tuple.
type PgIndexRow struct {
	Indoid      OID
	Relid       OID
	IsUnique    bool
	IsPrimary   bool
	IsExclusion bool
	IsImmediate bool
	IsValid     bool
	IsReady     bool
	IsLive      bool
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (r PgIndexRow) toRow(init *row.Initializer) *row.ProjectedRow {
	out := init.NewRow()
	binary.LittleEndian.PutUint32(out.Access(idxColIndoid), r.Indoid)
	binary.LittleEndian.PutUint32(out.Access(idxColRelid), r.Relid)
	out.Access(idxColIsUnique)[0] = boolByte(r.IsUnique)
	out.Access(idxColIsPrimary)[0] = boolByte(r.IsPrimary)
	out.Access(idxColIsExclusion)[0] = boolByte(r.IsExclusion)
	out.Access(idxColIsImmediate)[0] = boolByte(r.IsImmediate)
	out.Access(idxColIsValid)[0] = boolByte(r.IsValid)
	out.Access(idxColIsReady)[0] = boolByte(r.IsReady)
	out.Access(idxColIsLive)[0] = boolByte(r.IsLive)
	return out
}

func pgIndexFromRow(r *row.ProjectedRow) PgIndexRow {
	return PgIndexRow{
		Indoid:      binary.LittleEndian.Uint32(readCol(r, idxColIndoid)),
		Relid:       binary.LittleEndian.Uint32(readCol(r, idxColRelid)),
		IsUnique:    readCol(r, idxColIsUnique)[0] != 0,
		IsPrimary:   readCol(r, idxColIsPrimary)[0] != 0,
		IsExclusion: readCol(r, idxColIsExclusion)[0] != 0,
		IsImmediate: readCol(r, idxColIsImmediate)[0] != 0,
		IsValid:     readCol(r, idxColIsValid)[0] != 0,
		IsReady:     readCol(r, idxColIsReady)[0] != 0,
		IsLive:      readCol(r, idxColIsLive)[0] != 0,
	}
}
