// Package sqltable wraps a storage-layer table.DataTable with the
// OID-keyed surface the rest of the system addresses columns by. A
// column OID is stable for the lifetime of the column even across a
// table rewrite; a block.ColumnID is only stable for the lifetime of
// one physical layout. Callers above this package name columns by OID
// and obtain the matching block.ColumnID through ColIDForOID; the
// catalog's own tables do not go through this package.
package sqltable

import (
	"fmt"

	"github.com/cuemby/relstore/pkg/catalog"
	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/row"
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// Table pairs a DataTable with the OID<->ColumnID translation its
// catalog row describes. colID is assigned in attribute-insertion
// order, so it is stable as long as the table is never dropped and
// recreated — exactly DataTable's own assumption about block.ColumnID.
type Table struct {
	Relid  catalog.OID
	dt     *table.DataTable
	toCol  map[catalog.ColumnOID]block.ColumnID
	toOID  []catalog.ColumnOID // indexed by block.ColumnID
}

// New builds a Table from dt and the catalog's column OIDs (pg_attribute.Colnum),
// in the same order as dt's layout assigns block.ColumnID 1, 2, 3, ...
// This mirrors how CreateTable in pkg/catalog numbers both colnum and
// column position identically, so oids[i] corresponds to block.ColumnID(i+1).
func New(relid catalog.OID, dt *table.DataTable, oids []catalog.ColumnOID) *Table {
	toCol := make(map[catalog.ColumnOID]block.ColumnID, len(oids))
	toOID := make([]catalog.ColumnOID, len(oids)+1)
	for i, oid := range oids {
		colID := block.ColumnID(i + 1)
		toCol[oid] = colID
		toOID[colID] = oid
	}
	return &Table{Relid: relid, dt: dt, toCol: toCol, toOID: toOID}
}

// DataTable exposes the underlying storage table for components (e.g.
// database.RegisterTable, which enrolls it for vacuuming) that need
// raw slot access.
func (tbl *Table) DataTable() *table.DataTable { return tbl.dt }

// ColIDForOID is the constant-time OID -> block.ColumnID direction,
// used on every hot read/write path.
func (tbl *Table) ColIDForOID(oid catalog.ColumnOID) (block.ColumnID, error) {
	col, ok := tbl.toCol[oid]
	if !ok {
		return 0, fmt.Errorf("column oid %d not in table %d: %w", oid, tbl.Relid, errs.ErrInvalidReference)
	}
	return col, nil
}

// OIDForColID is the reverse direction, a constant-time lookup in a
// slice indexed by block.ColumnID, used by ProjectionMapForOIDs.
func (tbl *Table) OIDForColID(col block.ColumnID) (catalog.ColumnOID, error) {
	if int(col) >= len(tbl.toOID) || col == 0 {
		return 0, fmt.Errorf("column id %d not in table %d: %w", col, tbl.Relid, errs.ErrInvalidReference)
	}
	return tbl.toOID[col], nil
}

func (tbl *Table) colIDsForOIDs(oids []catalog.ColumnOID) ([]block.ColumnID, error) {
	cols := make([]block.ColumnID, len(oids))
	for i, oid := range oids {
		col, err := tbl.ColIDForOID(oid)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

// InitializerForProjectedRow builds a row.Initializer over the columns
// named by oids, for single-row select/insert/update.
func (tbl *Table) InitializerForProjectedRow(oids []catalog.ColumnOID) (*row.Initializer, error) {
	cols, err := tbl.colIDsForOIDs(oids)
	if err != nil {
		return nil, err
	}
	return row.NewInitializer(tbl.dt.Layout(), cols), nil
}

// InitializerForProjectedColumns builds a row.Initializer suitable for
// a batch of up to maxTuples rows over the columns named by oids; the
// initializer itself is identical to the single-row case, maxTuples
// only matters at NewColumns time.
func (tbl *Table) InitializerForProjectedColumns(oids []catalog.ColumnOID) (*row.Initializer, error) {
	return tbl.InitializerForProjectedRow(oids)
}

// ProjectionMap maps each requested column OID to its byte offset
// within a ProjectedRow built from the same OID set, for callers (e.g.
// an expression evaluator) that need to address fields without a
// second trip through the initializer.
type ProjectionMap map[catalog.ColumnOID]uint32

// ProjectionMapForOIDs returns the OID -> offset-within-row map for a
// projection over oids, in the same canonical (widest-fixed-first,
// varlen-last) order row.Initializer itself uses.
func (tbl *Table) ProjectionMapForOIDs(oids []catalog.ColumnOID) (ProjectionMap, error) {
	init, err := tbl.InitializerForProjectedRow(oids)
	if err != nil {
		return nil, err
	}
	m := make(ProjectionMap, len(oids))
	offset := uint32(0)
	nullBitmapBytes := (uint32(init.NumColumns()) + 7) / 8
	offset = nullBitmapBytes
	for _, col := range init.ColumnIDs() {
		oid, err := tbl.OIDForColID(col)
		if err != nil {
			return nil, err
		}
		m[oid] = offset
		size := uint32(tbl.dt.Layout().ColumnSize(col))
		if tbl.dt.Layout().IsVarlen(col) {
			size = block.VarlenEntrySize
		}
		offset += size
	}
	return m, nil
}

// Select materializes the row named by slot into out, whose columns
// must already be expressed in block.ColumnID terms (built via
// InitializerForProjectedRow).
func (tbl *Table) Select(t *txn.Txn, slot table.Slot, out *row.ProjectedRow) bool {
	return tbl.dt.Select(t, slot, out)
}

// Insert delegates to the underlying DataTable; redo must have been
// built from an initializer returned by this Table.
func (tbl *Table) Insert(t *txn.Txn, redo *row.ProjectedRow) table.Slot {
	return tbl.dt.Insert(t, redo)
}

// Update delegates to the underlying DataTable.
func (tbl *Table) Update(t *txn.Txn, slot table.Slot, redo *row.ProjectedRow) error {
	return tbl.dt.Update(t, slot, redo)
}

// Delete delegates to the underlying DataTable.
func (tbl *Table) Delete(t *txn.Txn, slot table.Slot) error {
	return tbl.dt.Delete(t, slot)
}

// Begin starts a fresh full-table scan iterator.
func (tbl *Table) Begin() *table.Iterator { return tbl.dt.Begin() }

// Scan fills out with tuples visible to t, starting at it; out must
// have been built from an initializer returned by this Table.
func (tbl *Table) Scan(t *txn.Txn, it *table.Iterator, out *row.ProjectedColumns) int {
	return tbl.dt.Scan(t, it, out)
}
