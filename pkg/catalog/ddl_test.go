package catalog

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestCreateNamespaceRejectsDuplicateName(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	_, err := c.CreateNamespace(w, "sales")
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	w2 := tm.Begin()
	_, err = c.CreateNamespace(w2, "sales")
	require.ErrorIs(t, err, errs.ErrOidConflict)
}

func TestCreateTableAssignsColumnsAndPublishesThroughSetTablePointer(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	cols := []ColumnSchema{
		{Name: "id", Typeid: TypeIntegerOID, NotNull: true},
		{Name: "balance", Typeid: TypeBigintOID, NotNull: true},
	}
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", cols)
	require.NoError(t, err)

	atts := c.GetAttributes(w, relid)
	require.Len(t, atts, 2)
	require.Equal(t, "id", atts[0].Name)
	require.Equal(t, int32(1), atts[0].Colnum)
	require.Equal(t, "balance", atts[1].Name)
	require.Equal(t, int32(2), atts[1].Colnum)

	require.NoError(t, c.SetTablePointer(w, relid, 42))
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	r := tm.Begin()
	cls, err := c.GetTable(r, relid)
	require.NoError(t, err)
	require.Equal(t, uint64(42), cls.ObjectPtr)
}

func TestSetTablePointerRejectsSecondPublish(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	require.NoError(t, c.SetTablePointer(w, relid, 1))
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	w2 := tm.Begin()
	err = c.SetTablePointer(w2, relid, 2)
	require.ErrorIs(t, err, errs.ErrOidConflict)
}

func TestDeleteTableRejectsWhileConstraintsRemain(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	c.InsertConstraint(w, ConstraintRow{Name: "accounts_pk", Namespace: NamespacePublicOID, Relid: relid})
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	w2 := tm.Begin()
	err = c.DeleteTable(w2, relid, nil)
	require.ErrorIs(t, err, errs.ErrConstraintsRemain)
}

func TestDeleteTableRemovesRowAndSchedulesOnDestroy(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	destroyed := make(chan struct{})
	w2 := tm.Begin()
	require.NoError(t, c.DeleteTable(w2, relid, func() { close(destroyed) }))
	require.NoError(t, tm.Commit(ctx, w2, nil, nil).Wait(ctx))

	r := tm.Begin()
	_, err = c.GetTable(r, relid)
	require.ErrorIs(t, err, errs.ErrInvalidReference)
}

func TestCreateIndexAndGetIndexesForRelation(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	idxOID, err := c.CreateIndex(w, NamespacePublicOID, "accounts_pkey", relid, true, true)
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	r := tm.Begin()
	idxs := c.GetIndexesForRelation(r, relid)
	require.Len(t, idxs, 1)
	require.Equal(t, idxOID, idxs[0].Indoid)
	require.True(t, idxs[0].IsUnique)
	require.True(t, idxs[0].IsPrimary)

	cls, idx, err := c.GetIndex(r, idxOID)
	require.NoError(t, err)
	require.Equal(t, "accounts_pkey", cls.Name)
	require.Equal(t, relid, idx.Relid)
}

func TestDeleteIndexRemovesBothRows(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	idxOID, err := c.CreateIndex(w, NamespacePublicOID, "accounts_pkey", relid, true, true)
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	w2 := tm.Begin()
	require.NoError(t, c.DeleteIndex(w2, idxOID, nil))
	require.NoError(t, tm.Commit(ctx, w2, nil, nil).Wait(ctx))

	r := tm.Begin()
	_, _, err = c.GetIndex(r, idxOID)
	require.ErrorIs(t, err, errs.ErrInvalidReference)
	require.Empty(t, c.GetIndexesForRelation(r, relid))
}

// TestDDLWriteLockRejectsOlderTransaction exercises the scenario where a
// transaction begun before a concurrent DDL commit attempts its own DDL
// afterward: it must abort rather than install a change based on a view
// of the catalog another writer has already superseded.
func TestDDLWriteLockRejectsOlderTransaction(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	stale := tm.Begin()

	fresh := tm.Begin()
	_, err := c.CreateNamespace(fresh, "sales")
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, fresh, nil, nil).Wait(ctx))

	_, err = c.CreateNamespace(stale, "marketing")
	require.ErrorIs(t, err, errs.ErrDdlLockRejection)
	require.True(t, stale.MustAbort())
}

// TestReaderSnapshotDoesNotObserveLaterDDL exercises S4 (snapshot
// isolation across DDL): a reader begun before a table is created must
// not see it, even after the creating transaction commits.
func TestReaderSnapshotDoesNotObserveLaterDDL(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	reader := tm.Begin()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	_, err = c.GetTable(reader, relid)
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	laterReader := tm.Begin()
	cls, err := c.GetTable(laterReader, relid)
	require.NoError(t, err)
	require.Equal(t, relid, cls.OID)
}

func TestInsertConstraintAllocatesOIDWhenUnset(t *testing.T) {
	c, tm := newBootstrappedCatalog(t)
	ctx := context.Background()

	w := tm.Begin()
	relid, err := c.CreateTable(w, NamespacePublicOID, "accounts", []ColumnSchema{{Name: "id", Typeid: TypeIntegerOID}})
	require.NoError(t, err)
	oid := c.InsertConstraint(w, ConstraintRow{Name: "accounts_pk", Namespace: NamespacePublicOID, Relid: relid})
	require.NotEqual(t, InvalidOID, oid)
	require.NoError(t, tm.Commit(ctx, w, nil, nil).Wait(ctx))

	r := tm.Begin()
	got, err := c.GetConstraint(r, oid)
	require.NoError(t, err)
	require.Equal(t, "accounts_pk", got.Name)

	cons := c.GetConstraints(r, relid)
	require.Len(t, cons, 1)
	require.Equal(t, oid, cons[0].OID)
}
