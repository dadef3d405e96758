package catalog

import (
	"fmt"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

// get_* operations never consult the DDL write-lock: they run the
// ordinary visibility rule against the caller's begin timestamp, so a
// long-lived reader simply never observes a DDL commit that happened
// after its snapshot. This is the "readers see the old schema under
// MVCC" resolution.

func (c *Catalog) getClassRow(t *txn.Txn, oid OID) (table.Slot, ClassRow, bool) {
	init := rowInit(c.clsTable.Layout(), classColumnIDs)
	out := init.NewRow()
	for _, slot := range c.clsByOID.ScanKey(t, u32Key(oid)) {
		if c.clsTable.Select(t, slot, out) {
			return slot, classFromRow(out), true
		}
	}
	return table.Slot{}, ClassRow{}, false
}

func (c *Catalog) getPgIndexRow(t *txn.Txn, indoid OID) (table.Slot, PgIndexRow, bool) {
	init := rowInit(c.idxTable.Layout(), pgIndexColumnIDs)
	out := init.NewRow()
	for _, slot := range c.idxByOID.ScanKey(t, u32Key(indoid)) {
		if c.idxTable.Select(t, slot, out) {
			return slot, pgIndexFromRow(out), true
		}
	}
	return table.Slot{}, PgIndexRow{}, false
}

// GetNamespace looks up a namespace by OID, visible to t.
func (c *Catalog) GetNamespace(t *txn.Txn, oid OID) (NamespaceRow, error) {
	init := rowInit(c.nsTable.Layout(), namespaceColumnIDs)
	out := init.NewRow()
	for _, slot := range c.nsByOID.ScanKey(t, u32Key(oid)) {
		if c.nsTable.Select(t, slot, out) {
			return namespaceFromRow(out), nil
		}
	}
	return NamespaceRow{}, fmt.Errorf("namespace oid %d: %w", oid, errs.ErrInvalidReference)
}

// GetNamespaceByName looks up a namespace by name, visible to t.
func (c *Catalog) GetNamespaceByName(t *txn.Txn, name string) (NamespaceRow, error) {
	init := rowInit(c.nsTable.Layout(), namespaceColumnIDs)
	out := init.NewRow()
	for _, slot := range c.nsByName.ScanKey(t, stringKey(name)) {
		if c.nsTable.Select(t, slot, out) {
			return namespaceFromRow(out), nil
		}
	}
	return NamespaceRow{}, fmt.Errorf("namespace %q: %w", name, errs.ErrInvalidReference)
}

// GetTable looks up a pg_class row of kind RegularTable by OID.
func (c *Catalog) GetTable(t *txn.Txn, oid OID) (ClassRow, error) {
	_, cls, ok := c.getClassRow(t, oid)
	if !ok || cls.Kind != RegularTable {
		return ClassRow{}, fmt.Errorf("table oid %d: %w", oid, errs.ErrInvalidReference)
	}
	return cls, nil
}

// GetTableByName looks up a pg_class row of kind RegularTable by
// (namespace, name).
func (c *Catalog) GetTableByName(t *txn.Txn, ns OID, name string) (ClassRow, error) {
	init := rowInit(c.clsTable.Layout(), classColumnIDs)
	out := init.NewRow()
	for _, slot := range c.clsByNsName.ScanKey(t, u32StringKey(ns, name)) {
		if c.clsTable.Select(t, slot, out) {
			cls := classFromRow(out)
			if cls.Kind == RegularTable {
				return cls, nil
			}
		}
	}
	return ClassRow{}, fmt.Errorf("table %q: %w", name, errs.ErrInvalidReference)
}

// GetIndex looks up a pg_class/pg_index pair by the index's OID.
func (c *Catalog) GetIndex(t *txn.Txn, oid OID) (ClassRow, PgIndexRow, error) {
	_, cls, ok := c.getClassRow(t, oid)
	if !ok || cls.Kind != Index {
		return ClassRow{}, PgIndexRow{}, fmt.Errorf("index oid %d: %w", oid, errs.ErrInvalidReference)
	}
	_, idx, ok := c.getPgIndexRow(t, oid)
	if !ok {
		return ClassRow{}, PgIndexRow{}, fmt.Errorf("index oid %d: %w", oid, errs.ErrInvalidReference)
	}
	return cls, idx, nil
}

// GetIndexesForRelation returns every index row visible to t that
// names relid, used by S4 ("snapshot isolation across DDL").
func (c *Catalog) GetIndexesForRelation(t *txn.Txn, relid OID) []PgIndexRow {
	init := rowInit(c.idxTable.Layout(), pgIndexColumnIDs)
	out := init.NewRow()
	var rows []PgIndexRow
	for _, slot := range c.idxByRelid.ScanKey(t, u32Key(relid)) {
		if c.idxTable.Select(t, slot, out) {
			rows = append(rows, pgIndexFromRow(out))
		}
	}
	return rows
}

// GetAttributes returns every column of relid visible to t, ordered by
// column number.
func (c *Catalog) GetAttributes(t *txn.Txn, relid OID) []AttributeRow {
	init := rowInit(c.attTable.Layout(), attributeColumnIDs)
	out := init.NewRow()
	var rows []AttributeRow
	for _, slot := range c.attByRelid.ScanKey(t, u32Key(relid)) {
		if c.attTable.Select(t, slot, out) {
			rows = append(rows, attributeFromRow(out))
		}
	}
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1].Colnum > rows[j].Colnum; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
	return rows
}

// GetType looks up a pg_type row by OID.
func (c *Catalog) GetType(t *txn.Txn, oid OID) (TypeRow, error) {
	init := rowInit(c.typTable.Layout(), typeColumnIDs)
	out := init.NewRow()
	for _, slot := range c.typByOID.ScanKey(t, u32Key(oid)) {
		if c.typTable.Select(t, slot, out) {
			return typeFromRow(out), nil
		}
	}
	return TypeRow{}, fmt.Errorf("type oid %d: %w", oid, errs.ErrInvalidReference)
}

// GetConstraints returns every pg_constraint row naming relid visible
// to t. This is a read-only accessor supplementing the distilled
// contract, which defines pg_constraint's schema and indexes but no
// DDL surface for it.
func (c *Catalog) GetConstraints(t *txn.Txn, relid OID) []ConstraintRow {
	init := rowInit(c.conTable.Layout(), constraintColumnIDs)
	out := init.NewRow()
	var rows []ConstraintRow
	for _, slot := range c.conByRelid.ScanKey(t, u32Key(relid)) {
		if c.conTable.Select(t, slot, out) {
			rows = append(rows, constraintFromRow(out))
		}
	}
	return rows
}

// GetConstraint looks up a single pg_constraint row by OID.
func (c *Catalog) GetConstraint(t *txn.Txn, oid OID) (ConstraintRow, error) {
	init := rowInit(c.conTable.Layout(), constraintColumnIDs)
	out := init.NewRow()
	for _, slot := range c.conByOID.ScanKey(t, u32Key(oid)) {
		if c.conTable.Select(t, slot, out) {
			return constraintFromRow(out), nil
		}
	}
	return ConstraintRow{}, fmt.Errorf("constraint oid %d: %w", oid, errs.ErrInvalidReference)
}

// InsertConstraint inserts a pg_constraint row directly; there is no
// higher-level DDL validation here, matching spec.md's "DDL on
// constraints is not required for correctness at this layer."
func (c *Catalog) InsertConstraint(t *txn.Txn, row ConstraintRow) OID {
	if row.OID == InvalidOID {
		row.OID = c.nextOID()
	}
	init := rowInit(c.conTable.Layout(), constraintColumnIDs)
	slot := c.conTable.Insert(t, row.toRow(init))
	c.conByOID.Insert(u32Key(row.OID), slot)
	c.conByName.Insert(u32StringKey(row.Namespace, row.Name), slot)
	c.conByNamespace.Insert(u32Key(row.Namespace), slot)
	c.conByRelid.Insert(u32Key(row.Relid), slot)
	c.conByIndexid.Insert(u32Key(row.Indexid), slot)
	c.conByForeignRelid.Insert(u32Key(row.ForeignRelid), slot)
	return row.OID
}
