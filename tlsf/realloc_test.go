package tlsf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func assertPattern(t *testing.T, b []byte, seed byte) {
	t.Helper()
	for i, v := range b {
		require.Equal(t, seed+byte(i), v, "byte %d corrupted", i)
	}
}

func TestResizeNilActsAsAllocate(t *testing.T) {
	p := newTestPool(t, 64*1024)
	buf := p.Resize(nil, 100)
	require.NotNil(t, buf)
	assert.Equal(t, 100, len(buf))
}

func TestResizeShrinkInPlace(t *testing.T) {
	p := newTestPool(t, 64*1024)
	buf := p.Allocate(1000)
	require.NotNil(t, buf)
	fillPattern(buf, 1)

	shrunk := p.Resize(buf, 10)
	require.NotNil(t, shrunk)
	assert.Equal(t, 10, len(shrunk))
	assertPattern(t, shrunk, 1)
	require.NoError(t, p.Check())
}

func TestResizeGrowForward(t *testing.T) {
	p := newTestPool(t, 64*1024)
	a := p.Allocate(100)
	require.NotNil(t, a)
	fillPattern(a, 7)
	b := p.Allocate(200)
	require.NotNil(t, b)
	p.Release(b) // frees the block physically after a, enabling grow-forward

	grown := p.Resize(a, 250)
	require.NotNil(t, grown)
	assert.Equal(t, 250, len(grown))
	assertPattern(t, grown[:100], 7)
	require.NoError(t, p.Check())
}

func TestResizeGrowBackward(t *testing.T) {
	p := newTestPool(t, 64*1024)
	a := p.Allocate(200)
	require.NotNil(t, a)
	b := p.Allocate(100)
	require.NotNil(t, b)
	c := p.Allocate(100)
	require.NotNil(t, c) // keeps b's successor in use, so b can only grow backward
	fillPattern(b, 3)
	aAddr := addrOf(a)
	p.Release(a) // frees the block physically before b

	grown := p.Resize(b, 250)
	require.NotNil(t, grown)
	assert.Equal(t, 250, len(grown))
	assert.Equal(t, aAddr, addrOf(grown))
	assertPattern(t, grown[:100], 3)
	require.NoError(t, p.Check())
}

func TestResizeRelocatesWhenNeitherNeighborFits(t *testing.T) {
	p := newTestPool(t, 64*1024)
	a := p.Allocate(100)
	require.NotNil(t, a)
	b := p.Allocate(100)
	require.NotNil(t, b)
	c := p.Allocate(100)
	require.NotNil(t, c)
	fillPattern(b, 9)

	// a and c stay allocated, so b can't grow into either physical
	// neighbor and must relocate.
	grown := p.Resize(b, 40000)
	require.NotNil(t, grown)
	assert.Equal(t, 40000, len(grown))
	assertPattern(t, grown[:100], 9)
	require.NoError(t, p.Check())
}

func TestResizeFailureLeavesOriginalIntact(t *testing.T) {
	p := newTestPool(t, 4096)
	buf := p.Allocate(100)
	require.NotNil(t, buf)
	fillPattern(buf, 5)

	out := p.Resize(buf, 1<<30)
	assert.Nil(t, out)
	assertPattern(t, buf, 5)
}
