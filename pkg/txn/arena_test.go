package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocCopyRoundTrip(t *testing.T) {
	a := acquireArena()
	defer releaseArena(a)

	b := a.AllocCopy([]byte("before-image"))
	require.Equal(t, "before-image", string(b))

	c := a.Alloc(8)
	require.Len(t, c, 8)
	for _, v := range c {
		require.Zero(t, v)
	}
}

func TestArenaGrowsAcrossChunks(t *testing.T) {
	a := acquireArena()
	defer releaseArena(a)

	big := a.Alloc(arenaChunkSize + 1)
	require.Len(t, big, arenaChunkSize+1)
	require.Len(t, a.chunks, 1)

	small := a.Alloc(16)
	require.Len(t, small, 16)
	require.Len(t, a.chunks, 2)
}
