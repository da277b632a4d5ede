package tlsf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRemoveRoundTrip(t *testing.T) {
	p := newTestPool(t, 64*1024)
	require.NoError(t, p.Check())

	s0 := p.Stats()
	require.Equal(t, 1, s0.FreeBlocks)

	// The pool's single free block is already indexed by layoutFreshPool.
	// Pull it out, then put it back, and the index should end up identical.
	fl, sl := mapping(blkSize(p.base))
	head := p.head[fl][sl]
	require.NotEqual(t, p.sentinelPtr(), head)

	p.remove(head)
	assert.Equal(t, p.sentinelPtr(), p.head[fl][sl])
	assert.Equal(t, uint32(0), p.flBitmap)

	p.insert(head)
	assert.Equal(t, head, p.head[fl][sl])
	assert.NotEqual(t, uint32(0), p.flBitmap&(1<<uint(fl)))
	require.NoError(t, p.Check())
}

func TestFindSuitablePrefersRequestedBinOrHigher(t *testing.T) {
	p := newTestPool(t, 1 << 20)
	fl, sl := mapping(blkSize(p.base))

	b, foundFL, foundSL, ok := p.findSuitable(0, 0)
	require.True(t, ok)
	assert.Equal(t, fl, foundFL)
	assert.Equal(t, sl, foundSL)
	assert.NotNil(t, b)
}

func TestFindSuitableFailsOnEmptyIndex(t *testing.T) {
	p := newTestPool(t, 64*1024)
	fl, sl := mapping(blkSize(p.base))
	p.remove(p.head[fl][sl])

	_, _, _, ok := p.findSuitable(0, 0)
	assert.False(t, ok)
}
