package txn

import (
	"context"
	"testing"

	"github.com/cuemby/relstore/pkg/errs"
	"github.com/cuemby/relstore/pkg/logsink"
	"github.com/stretchr/testify/require"
)

func TestBeginIssuesStrictlyIncreasingTimestamps(t *testing.T) {
	m := NewManager(nil)
	a := m.Begin()
	b := m.Begin()
	require.Less(t, a.BeginTS(), b.BeginTS())
	require.False(t, IsCommitTS(a.BeginTS()))
}

func TestCommitPublishesRedoAndCommitRecords(t *testing.T) {
	sink := logsink.NewMemory()
	m := NewManager(sink)
	ctx := context.Background()

	tx := m.Begin()
	tx.StageWrite(logsink.Record{TableOID: 1, BlockID: 1, Offset: 0, Data: []byte("row")})

	var cbErr error
	future := m.Commit(ctx, tx, func(err error) { cbErr = err }, nil)
	require.NoError(t, future.Wait(ctx))
	require.NoError(t, cbErr)
	require.True(t, tx.Committed())

	recs := sink.Records()
	require.Len(t, recs, 2)
	require.Equal(t, logsink.KindRedo, recs[0].Kind)
	require.Equal(t, logsink.KindCommit, recs[1].Kind)
}

func TestReadOnlyCommitEmitsNoRecords(t *testing.T) {
	sink := logsink.NewMemory()
	m := NewManager(sink)
	ctx := context.Background()

	tx := m.Begin()
	require.True(t, tx.ReadOnly())
	m.Commit(ctx, tx, nil, nil)
	require.Empty(t, sink.Records())
}

func TestMustAbortDivertsCommitToAbort(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	tx := m.Begin()
	var reverted bool
	tx.RegisterUndo(func() { reverted = true })
	tx.SetMustAbort()

	var cbErr error
	m.Commit(ctx, tx, func(err error) { cbErr = err }, nil)
	require.ErrorIs(t, cbErr, errs.ErrMustAbort)
	require.True(t, reverted)
	require.True(t, tx.Aborted())
}

func TestAbortRevertsUndoNewestFirst(t *testing.T) {
	m := NewManager(nil)
	var order []int

	tx := m.Begin()
	tx.RegisterUndo(func() { order = append(order, 1) })
	tx.RegisterUndo(func() { order = append(order, 2) })
	tx.RegisterUndo(func() { order = append(order, 3) })

	m.Abort(tx)
	require.Equal(t, []int{3, 2, 1}, order)
}

func TestVisibilityRespectsCommitOrdering(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	writer := m.Begin()
	m.Commit(ctx, writer, nil, nil)

	reader := m.Begin()
	require.True(t, writer.IsVisibleTo(reader))

	laterWriter := m.Begin()
	require.False(t, laterWriter.IsVisibleTo(reader))
}

func TestBeginBootstrapRejectsAfterFirstTimestamp(t *testing.T) {
	m := NewManager(nil)
	m.Begin()
	_, err := m.BeginBootstrap()
	require.Error(t, err)
}
