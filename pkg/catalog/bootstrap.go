package catalog

import (
	"context"
	"encoding/binary"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/cuemby/relstore/pkg/storage/table"
	"github.com/cuemby/relstore/pkg/txn"
)

func oidFromBytes(b []byte) OID { return binary.LittleEndian.Uint32(b) }

// bootstrapClass describes one of the catalog's own tables, inserted
// into pg_class during bootstrap so pg_class is genuinely
// self-describing: looking up "pg_class" by name returns a real row.
type bootstrapClass struct {
	oid  OID
	name string
}

var bootstrapClasses = []bootstrapClass{
	{ClassPgNamespaceOID, "pg_namespace"},
	{ClassPgClassOID, "pg_class"},
	{ClassPgIndexOID, "pg_index"},
	{ClassPgAttributeOID, "pg_attribute"},
	{ClassPgTypeOID, "pg_type"},
	{ClassPgConstraintOID, "pg_constraint"},
}

// Bootstrap materializes the reserved namespaces, the catalog's own
// pg_class entries, and the built-in pg_type rows, all inside one
// transaction obtained via txn.Manager.BeginBootstrap. Its visibility
// rule treats every row this transaction installs as already
// committed to any later reader, which is what lets pg_class describe
// itself without a chicken-and-egg bootstrap order.
//
// Phase 1 — building the in-memory table/index descriptors — already
// happened in New; Bootstrap is phase 2, the single transaction that
// inserts rows into the now-functional catalog tables.
func (c *Catalog) Bootstrap(ctx context.Context) error {
	if c.ddlLock.Load() != 0 {
		return errs.ErrAlreadyBootstrapped
	}
	t, err := c.tm.BeginBootstrap()
	if err != nil {
		return err
	}

	nsInit := rowInit(c.nsTable.Layout(), namespaceColumnIDs)
	for _, n := range []NamespaceRow{
		{OID: NamespacePgCatalogOID, Name: "pg_catalog"},
		{OID: NamespacePublicOID, Name: "public"},
	} {
		slot := c.nsTable.Insert(t, n.toRow(nsInit))
		c.nsByOID.Insert(u32Key(n.OID), slot)
		c.nsByName.Insert(stringKey(n.Name), slot)
	}

	clsInit := rowInit(c.clsTable.Layout(), classColumnIDs)
	for _, bc := range bootstrapClasses {
		row := ClassRow{OID: bc.oid, Name: bc.name, Namespace: NamespacePgCatalogOID, Kind: RegularTable}
		slot := c.clsTable.Insert(t, row.toRow(clsInit))
		c.clsByOID.Insert(u32Key(row.OID), slot)
		c.clsByNsName.Insert(u32StringKey(row.Namespace, row.Name), slot)
		c.clsByNs.Insert(u32Key(row.Namespace), slot)
	}

	typInit := rowInit(c.typTable.Layout(), typeColumnIDs)
	for _, ty := range builtinTypes {
		slot := c.typTable.Insert(t, ty.toRow(typInit))
		c.typByOID.Insert(u32Key(ty.OID), slot)
		c.typByName.Insert(stringKey(ty.Name), slot)
	}

	future := c.tm.Commit(ctx, t, nil, nil)
	if err := future.Wait(ctx); err != nil {
		return err
	}

	commitTS, _ := t.FinishTS()
	c.ddlLock.Store(commitTS)
	return nil
}

// RecoverOIDCounter restores the OID counter after reopening an
// existing database by scanning pg_class, pg_index, and pg_namespace
// for the maximum OID ever observed, matching the original recovery
// strategy of tracking the highest-issued OID rather than persisting
// the counter itself.
func (c *Catalog) RecoverOIDCounter(t *txn.Txn) {
	max := c.oidCounter.Load()

	if got := maxOIDIn(t, c.nsTable, nsColOID, namespaceColumnIDs); got > max {
		max = got
	}
	if got := maxOIDIn(t, c.clsTable, clsColOID, classColumnIDs); got > max {
		max = got
	}
	if got := maxOIDIn(t, c.idxTable, idxColIndoid, pgIndexColumnIDs); got > max {
		max = got
	}
	c.oidCounter.Store(max)
}

func maxOIDIn(t *txn.Txn, dt *table.DataTable, oidCol block.ColumnID, cols []block.ColumnID) OID {
	init := rowInit(dt.Layout(), cols)
	batch := init.NewColumns(64)
	it := dt.Begin()
	var max OID
	for {
		n := dt.Scan(t, it, batch)
		for i := 0; i < n; i++ {
			r := batch.RowAt(i)
			b, _ := r.AccessWithNullCheck(oidCol)
			if v := oidFromBytes(b); v > max {
				max = v
			}
		}
		if n < batch.MaxTuples() {
			break
		}
	}
	return max
}
