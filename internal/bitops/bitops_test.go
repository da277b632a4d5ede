package bitops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog2Floor(t *testing.T) {
	tests := []struct {
		x    uint
		want int
	}{
		{0, -1},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{1023, 9},
		{1024, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Log2Floor(tt.x), "x=%d", tt.x)
	}
}

func TestCtz(t *testing.T) {
	assert.Equal(t, 0, Ctz(1))
	assert.Equal(t, 1, Ctz(2))
	assert.Equal(t, 4, Ctz(16))
}

func TestCtz32(t *testing.T) {
	assert.Equal(t, 0, Ctz32(1))
	assert.Equal(t, 31, Ctz32(1<<31))
	assert.Equal(t, 32, Ctz32(0))
}
