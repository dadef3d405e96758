package database

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestOpenBootstrapsCatalog(t *testing.T) {
	db, err := Open(context.Background(), "bench", Config{})
	require.NoError(t, err)
	require.NotEqual(t, db.ID.String(), "")

	reader := db.TxnManager.Begin()
	ns, err := db.Catalog.GetNamespaceByName(reader, "public")
	require.NoError(t, err)
	require.Equal(t, "public", ns.Name)
}

func TestRegistryLookupByName(t *testing.T) {
	db, err := Open(context.Background(), "orders", Config{})
	require.NoError(t, err)

	r := NewRegistry()
	r.Register(db)

	found, err := r.Lookup("orders")
	require.NoError(t, err)
	require.Equal(t, db.ID, found.ID)

	_, err = r.Lookup("missing")
	require.ErrorIs(t, err, errs.ErrInvalidReference)
}

func TestRegistryCloseRemovesDatabase(t *testing.T) {
	db, err := Open(context.Background(), "temp", Config{})
	require.NoError(t, err)

	r := NewRegistry()
	r.Register(db)
	r.Close(db.ID)

	_, err = r.Get(db.ID)
	require.ErrorIs(t, err, errs.ErrInvalidReference)
}

func TestHandleArenaRegisterAndRelease(t *testing.T) {
	a := NewHandleArena()
	h := a.Register("payload")

	obj, ok := a.Lookup(h)
	require.True(t, ok)
	require.Equal(t, "payload", obj)

	a.Release(h)
	_, ok = a.Lookup(h)
	require.False(t, ok)

	_, ok = a.Lookup(InvalidHandle)
	require.False(t, ok)
}
