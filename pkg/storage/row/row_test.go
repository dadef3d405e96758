package row

import (
	"encoding/binary"
	"testing"

	"github.com/cuemby/relstore/pkg/storage/block"
	"github.com/stretchr/testify/require"
)

func testLayout() *block.Layout {
	return block.NewLayout([]block.Column{
		{ID: 1, Size: 4},
		{ID: 2, Size: 8},
		{ID: 3, Varlen: true},
	})
}

func TestProjectedRowRoundTrip(t *testing.T) {
	l := testLayout()
	init := NewInitializer(l, []block.ColumnID{1, 2, 3})

	r := init.NewRow()
	binary.LittleEndian.PutUint32(r.Access(1), 42)
	binary.LittleEndian.PutUint64(r.Access(2), 7)
	r.SetNull(3)

	require.Equal(t, uint32(42), binary.LittleEndian.Uint32(r.Access(1)))
	buf, isNull := r.AccessWithNullCheck(3)
	require.True(t, isNull)
	_ = buf
	require.False(t, r.IsNull(1))
}

func TestProjectedColumnsAppendAndReset(t *testing.T) {
	l := testLayout()
	init := NewInitializer(l, []block.ColumnID{1})

	cols := init.NewColumns(4)
	require.Equal(t, 0, cols.NumTuples())

	for i := 0; i < 4; i++ {
		r := init.NewRow()
		binary.LittleEndian.PutUint32(r.Access(1), uint32(i))
		require.True(t, cols.Append(r))
	}
	require.Equal(t, 4, cols.NumTuples())

	extra := init.NewRow()
	require.False(t, cols.Append(extra))

	for i := 0; i < 4; i++ {
		v := binary.LittleEndian.Uint32(cols.RowAt(i).Access(1))
		require.Equal(t, uint32(i), v)
	}

	cols.Reset()
	require.Equal(t, 0, cols.NumTuples())
}

func TestInitializerCanonicalOrder(t *testing.T) {
	l := testLayout()
	init := NewInitializer(l, []block.ColumnID{1, 2, 3})
	require.Equal(t, []block.ColumnID{2, 1, 3}, init.ColumnIDs())
}
