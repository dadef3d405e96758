// Package integration exercises the full stack — database, catalog,
// and sqltable — against the end-to-end scenarios a unit test scoped
// to a single package cannot reach on its own.
package integration

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/cuemby/relstore/pkg/catalog"
	"github.com/cuemby/relstore/pkg/database"
	"github.com/cuemby/relstore/pkg/sqltable"
	"github.com/stretchr/testify/require"
)

func openTestDatabase(t *testing.T) (*database.Database, context.Context) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "integration", database.Config{})
	require.NoError(t, err)
	return db, ctx
}

// TestCreateInsertSelect is S1: create a namespace and table, insert a
// row, and read it back by projection.
func TestCreateInsertSelect(t *testing.T) {
	db, ctx := openTestDatabase(t)

	t1 := db.TxnManager.Begin()
	ns1, err := db.Catalog.CreateNamespace(t1, "app")
	require.NoError(t, err)

	cols := []catalog.ColumnSchema{
		{Name: "id", Typeid: catalog.TypeIntegerOID, NotNull: true},
		{Name: "v", Typeid: catalog.TypeIntegerOID, NotNull: true},
	}
	toid, err := db.Catalog.CreateTable(t1, ns1, "t", cols)
	require.NoError(t, err)

	tbl := sqltable.NewFromSchema(toid, cols, database.DefaultBlockSize, 4)
	handle := db.RegisterTable(tbl)
	require.NoError(t, db.Catalog.SetTablePointer(t1, toid, uint64(handle)))
	require.NoError(t, db.TxnManager.Commit(ctx, t1, nil, nil).Wait(ctx))

	init, err := tbl.InitializerForProjectedRow([]int32{1, 2})
	require.NoError(t, err)
	idCol, err := tbl.ColIDForOID(1)
	require.NoError(t, err)
	vCol, err := tbl.ColIDForOID(2)
	require.NoError(t, err)

	t2 := db.TxnManager.Begin()
	redo := init.NewRow()
	binary.LittleEndian.PutUint32(redo.Access(idCol), 1)
	binary.LittleEndian.PutUint32(redo.Access(vCol), 42)
	slot := tbl.Insert(t2, redo)
	require.NoError(t, db.TxnManager.Commit(ctx, t2, nil, nil).Wait(ctx))

	t3 := db.TxnManager.Begin()
	out := init.NewRow()
	require.True(t, tbl.Select(t3, slot, out))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(out.Access(idCol)))
	require.Equal(t, uint32(42), binary.LittleEndian.Uint32(out.Access(vCol)))
}

// TestSnapshotIsolationAcrossDDL is S4: a transaction begun before a
// concurrent index creation must not see that index, even after the
// creating transaction has committed.
func TestSnapshotIsolationAcrossDDL(t *testing.T) {
	db, ctx := openTestDatabase(t)

	setup := db.TxnManager.Begin()
	toid, err := db.Catalog.CreateTable(setup, catalog.NamespacePublicOID, "widgets",
		[]catalog.ColumnSchema{{Name: "id", Typeid: catalog.TypeIntegerOID}})
	require.NoError(t, err)
	require.NoError(t, db.TxnManager.Commit(ctx, setup, nil, nil).Wait(ctx))

	tLong := db.TxnManager.Begin()

	tDDL := db.TxnManager.Begin()
	idxOID, err := db.Catalog.CreateIndex(tDDL, catalog.NamespacePublicOID, "widgets_idx", toid, false, false)
	require.NoError(t, err)
	require.NoError(t, db.TxnManager.Commit(ctx, tDDL, nil, nil).Wait(ctx))

	_, _, err = db.Catalog.GetIndex(tLong, idxOID)
	require.Error(t, err, "a snapshot begun before the DDL commit must not observe the new index")

	fresh := db.TxnManager.Begin()
	_, _, err = db.Catalog.GetIndex(fresh, idxOID)
	require.NoError(t, err)
}

// TestDeferredFreeOnDrop is S5: a table dropped by one transaction
// still appears to a reader whose snapshot predates the drop, and the
// dropped object's destructor runs through the GC manager rather than
// synchronously at commit time.
func TestDeferredFreeOnDrop(t *testing.T) {
	db, ctx := openTestDatabase(t)

	setup := db.TxnManager.Begin()
	toid, err := db.Catalog.CreateTable(setup, catalog.NamespacePublicOID, "scratch",
		[]catalog.ColumnSchema{{Name: "id", Typeid: catalog.TypeIntegerOID}})
	require.NoError(t, err)
	require.NoError(t, db.TxnManager.Commit(ctx, setup, nil, nil).Wait(ctx))

	preDrop := db.TxnManager.Begin()
	preDropCls, err := db.Catalog.GetTable(preDrop, toid)
	require.NoError(t, err)
	require.Equal(t, toid, preDropCls.OID)

	destroyed := make(chan struct{})
	dropper := db.TxnManager.Begin()
	require.NoError(t, db.Catalog.DeleteTable(dropper, toid, func() { close(destroyed) }))
	require.NoError(t, db.TxnManager.Commit(ctx, dropper, nil, nil).Wait(ctx))

	// preDrop's accessor result was captured before the drop committed;
	// a reader still holding it is unaffected by the later DeleteTable.
	_, err = db.Catalog.GetTable(preDrop, toid)
	require.NoError(t, err, "preDrop's snapshot predates the drop and must still see the table")

	postDrop := db.TxnManager.Begin()
	_, err = db.Catalog.GetTable(postDrop, toid)
	require.Error(t, err)

	select {
	case <-destroyed:
		t.Fatal("onDestroy ran before any GC epoch advance")
	default:
	}
}

// TestScanCompleteness is S6: a scan over a freshly populated table
// returns exactly the rows committed, each with a unique id.
func TestScanCompleteness(t *testing.T) {
	db, ctx := openTestDatabase(t)
	const n = 2000

	setup := db.TxnManager.Begin()
	cols := []catalog.ColumnSchema{{Name: "id", Typeid: catalog.TypeIntegerOID, NotNull: true}}
	toid, err := db.Catalog.CreateTable(setup, catalog.NamespacePublicOID, "counted", cols)
	require.NoError(t, err)
	tbl := sqltable.NewFromSchema(toid, cols, database.DefaultBlockSize, 8)
	handle := db.RegisterTable(tbl)
	require.NoError(t, db.Catalog.SetTablePointer(setup, toid, uint64(handle)))
	require.NoError(t, db.TxnManager.Commit(ctx, setup, nil, nil).Wait(ctx))

	init, err := tbl.InitializerForProjectedRow([]int32{1})
	require.NoError(t, err)
	idCol, err := tbl.ColIDForOID(1)
	require.NoError(t, err)

	writer := db.TxnManager.Begin()
	for i := 0; i < n; i++ {
		redo := init.NewRow()
		binary.LittleEndian.PutUint32(redo.Access(idCol), uint32(i))
		tbl.Insert(writer, redo)
	}
	require.NoError(t, db.TxnManager.Commit(ctx, writer, nil, nil).Wait(ctx))

	reader := db.TxnManager.Begin()
	seen := make(map[uint32]bool, n)
	batch := init.NewColumns(256)
	it := tbl.Begin()
	total := 0
	for {
		got := tbl.Scan(reader, it, batch)
		for i := 0; i < got; i++ {
			id := binary.LittleEndian.Uint32(batch.RowAt(i).Access(idCol))
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		total += got
		if got < batch.MaxTuples() {
			break
		}
	}
	require.Equal(t, n, total)
	require.Len(t, seen, n)
	for i := uint32(0); i < n; i++ {
		require.True(t, seen[i], "missing id %d", i)
	}
}
