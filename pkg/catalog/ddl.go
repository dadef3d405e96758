package catalog

import (
	"fmt"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/metrics"
	"github.com/cuemby/relstore/pkg/txn"
)

// checkDDLLock enforces the database-wide DDL write-lock: a txn may
// install a DDL change only if its begin timestamp is at or after the
// last successful DDL commit. Older writers are forced to abort, which
// mirrors the write-write conflict rule DML already uses on ordinary
// tables.
func (c *Catalog) checkDDLLock(t *txn.Txn) error {
	if t.BeginTS() < c.ddlLock.Load() {
		t.SetMustAbort()
		metrics.CatalogDDLRejectionsTotal.WithLabelValues("ddl_lock").Inc()
		return errs.ErrDdlLockRejection
	}
	return nil
}

func (c *Catalog) commitDDL(t *txn.Txn, kind string) {
	t.RegisterCommitAction(func() {
		if ts, ok := t.FinishTS(); ok {
			for {
				cur := c.ddlLock.Load()
				if ts <= cur || c.ddlLock.CompareAndSwap(cur, ts) {
					break
				}
			}
		}
		metrics.CatalogDDLCommitsTotal.WithLabelValues(kind).Inc()
	})
}

// CreateNamespace inserts a pg_namespace row, failing with
// ErrOidConflict if the name is already taken by a visible row.
func (c *Catalog) CreateNamespace(t *txn.Txn, name string) (OID, error) {
	if err := c.checkDDLLock(t); err != nil {
		return InvalidOID, err
	}
	if existing := c.nsByName.ScanKey(t, stringKey(name)); len(existing) > 0 {
		return InvalidOID, fmt.Errorf("namespace %q: %w", name, errs.ErrOidConflict)
	}

	oid := c.nextOID()
	row := NamespaceRow{OID: oid, Name: name}
	init := rowInit(c.nsTable.Layout(), namespaceColumnIDs)
	slot := c.nsTable.Insert(t, row.toRow(init))
	c.nsByOID.Insert(u32Key(oid), slot)
	c.nsByName.Insert(stringKey(name), slot)

	c.commitDDL(t, "create_namespace")
	return oid, nil
}

// CreateTable assigns column OIDs monotonically from 1 within the new
// table, inserts its pg_class row (kind REGULAR_TABLE, object-ptr
// unset), then one pg_attribute row per column. Storage for the table
// itself is not allocated here; the caller publishes it afterward via
// SetTablePointer, before committing t.
func (c *Catalog) CreateTable(t *txn.Txn, ns OID, name string, cols []ColumnSchema) (OID, error) {
	if err := c.checkDDLLock(t); err != nil {
		return InvalidOID, err
	}
	if existing := c.clsByNsName.ScanKey(t, u32StringKey(ns, name)); len(existing) > 0 {
		return InvalidOID, fmt.Errorf("table %q: %w", name, errs.ErrOidConflict)
	}

	oid := c.nextOID()
	nextColOID := uint32(1)

	clsInit := rowInit(c.clsTable.Layout(), classColumnIDs)
	cls := ClassRow{OID: oid, Name: name, Namespace: ns, Kind: RegularTable, NextColOID: uint32(len(cols)) + 1}
	slot := c.clsTable.Insert(t, cls.toRow(clsInit))
	c.clsByOID.Insert(u32Key(oid), slot)
	c.clsByNsName.Insert(u32StringKey(ns, name), slot)
	c.clsByNs.Insert(u32Key(ns), slot)

	attInit := rowInit(c.attTable.Layout(), attributeColumnIDs)
	for _, col := range cols {
		colnum := int32(nextColOID)
		nextColOID++
		att := AttributeRow{
			Colnum:     colnum,
			Relid:      oid,
			Name:       col.Name,
			Typeid:     col.Typeid,
			Len:        col.Len,
			NotNull:    col.NotNull,
			DefaultSrc: col.DefaultSrc,
		}
		attSlot := c.attTable.Insert(t, att.toRow(attInit))
		c.attByRelidColnum.Insert(u32u32Key(oid, uint32(colnum)), attSlot)
		c.attByRelidName.Insert(u32StringKey(oid, col.Name), attSlot)
		c.attByRelid.Insert(u32Key(oid), attSlot)
	}

	c.commitDDL(t, "create_table")
	return oid, nil
}

// ColumnSchema describes one column of a table being created.
type ColumnSchema struct {
	Name       string
	Typeid     OID
	Len        int32
	NotNull    bool
	DefaultSrc string
}

// SetTablePointer publishes ptr as the pg_class row's object-ptr,
// succeeding only if the row is visible to t and its object-ptr is
// still unset.
func (c *Catalog) SetTablePointer(t *txn.Txn, oid OID, ptr uint64) error {
	return c.setClassPointer(t, oid, func(cls *ClassRow) error {
		if cls.ObjectPtr != 0 {
			return fmt.Errorf("table %d: object pointer already set: %w", oid, errs.ErrOidConflict)
		}
		cls.ObjectPtr = ptr
		return nil
	})
}

// SetIndexPointer publishes ptr as the pg_class row's schema-ptr slot
// (reused here for the index object, per spec.md's "opaque pointer"
// treatment of both columns), succeeding only once.
func (c *Catalog) SetIndexPointer(t *txn.Txn, oid OID, ptr uint64) error {
	return c.setClassPointer(t, oid, func(cls *ClassRow) error {
		if cls.SchemaPtr != 0 {
			return fmt.Errorf("index %d: object pointer already set: %w", oid, errs.ErrOidConflict)
		}
		cls.SchemaPtr = ptr
		return nil
	})
}

func (c *Catalog) setClassPointer(t *txn.Txn, oid OID, mutate func(*ClassRow) error) error {
	slot, cls, ok := c.getClassRow(t, oid)
	if !ok {
		return fmt.Errorf("oid %d: %w", oid, errs.ErrInvalidReference)
	}
	if err := mutate(&cls); err != nil {
		return err
	}
	init := rowInit(c.clsTable.Layout(), classColumnIDs)
	return c.clsTable.Update(t, slot, cls.toRow(init))
}

// DeleteTable deletes the pg_class row and its index entries, and
// registers a commit action that defers destruction of onDestroy
// (typically closing over the schema and SqlTable objects) until the
// GC epoch proves no concurrent lookup can still reach them. It
// rejects the drop while pg_constraint has live rows naming oid.
func (c *Catalog) DeleteTable(t *txn.Txn, oid OID, onDestroy func()) error {
	if err := c.checkDDLLock(t); err != nil {
		return err
	}
	if cons := c.conByRelid.ScanKey(t, u32Key(oid)); len(cons) > 0 {
		return fmt.Errorf("table %d has %d live constraints: %w", oid, len(cons), errs.ErrConstraintsRemain)
	}

	slot, cls, ok := c.getClassRow(t, oid)
	if !ok {
		return fmt.Errorf("oid %d: %w", oid, errs.ErrInvalidReference)
	}
	if err := c.clsTable.Delete(t, slot); err != nil {
		return err
	}
	c.clsByOID.Delete(u32Key(oid), slot)
	c.clsByNsName.Delete(u32StringKey(cls.Namespace, cls.Name), slot)
	c.clsByNs.Delete(u32Key(cls.Namespace), slot)

	c.commitDDL(t, "delete_table")
	if onDestroy != nil {
		t.RegisterCommitAction(func() {
			c.gc.Defer("catalog-table-object", onDestroy)
		})
	}
	return nil
}

// CreateIndex inserts pg_class (kind Index) and pg_index rows
// describing a new index on relid.
func (c *Catalog) CreateIndex(t *txn.Txn, ns OID, name string, relid OID, unique, primary bool) (OID, error) {
	if err := c.checkDDLLock(t); err != nil {
		return InvalidOID, err
	}
	if existing := c.clsByNsName.ScanKey(t, u32StringKey(ns, name)); len(existing) > 0 {
		return InvalidOID, fmt.Errorf("index %q: %w", name, errs.ErrOidConflict)
	}

	oid := c.nextOID()
	clsInit := rowInit(c.clsTable.Layout(), classColumnIDs)
	cls := ClassRow{OID: oid, Name: name, Namespace: ns, Kind: Index}
	slot := c.clsTable.Insert(t, cls.toRow(clsInit))
	c.clsByOID.Insert(u32Key(oid), slot)
	c.clsByNsName.Insert(u32StringKey(ns, name), slot)
	c.clsByNs.Insert(u32Key(ns), slot)

	idxInit := rowInit(c.idxTable.Layout(), pgIndexColumnIDs)
	idx := PgIndexRow{Indoid: oid, Relid: relid, IsUnique: unique, IsPrimary: primary, IsValid: true, IsReady: true, IsLive: true}
	idxSlot := c.idxTable.Insert(t, idx.toRow(idxInit))
	c.idxByOID.Insert(u32Key(oid), idxSlot)
	c.idxByRelid.Insert(u32Key(relid), idxSlot)

	c.commitDDL(t, "create_index")
	return oid, nil
}

// DeleteIndex deletes the pg_class and pg_index rows describing oid,
// and defers destruction of onDestroy the same way DeleteTable does.
func (c *Catalog) DeleteIndex(t *txn.Txn, oid OID, onDestroy func()) error {
	if err := c.checkDDLLock(t); err != nil {
		return err
	}

	clsSlot, cls, ok := c.getClassRow(t, oid)
	if !ok {
		return fmt.Errorf("oid %d: %w", oid, errs.ErrInvalidReference)
	}
	idxSlot, idx, ok := c.getPgIndexRow(t, oid)
	if !ok {
		return fmt.Errorf("oid %d: %w", oid, errs.ErrInvalidReference)
	}

	if err := c.clsTable.Delete(t, clsSlot); err != nil {
		return err
	}
	c.clsByOID.Delete(u32Key(oid), clsSlot)
	c.clsByNsName.Delete(u32StringKey(cls.Namespace, cls.Name), clsSlot)
	c.clsByNs.Delete(u32Key(cls.Namespace), clsSlot)

	if err := c.idxTable.Delete(t, idxSlot); err != nil {
		return err
	}
	c.idxByOID.Delete(u32Key(oid), idxSlot)
	c.idxByRelid.Delete(u32Key(idx.Relid), idxSlot)

	c.commitDDL(t, "delete_index")
	if onDestroy != nil {
		t.RegisterCommitAction(func() {
			c.gc.Defer("catalog-index-object", onDestroy)
		})
	}
	return nil
}
