package backing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoroutineHintReturnsNonZero(t *testing.T) {
	var h GoroutineHint
	assert.NotZero(t, h.Hint())
}

func TestGoroutineHintDiffersAcrossGoroutines(t *testing.T) {
	var h GoroutineHint
	n := 8
	hints := make(chan uintptr, n)
	for i := 0; i < n; i++ {
		go func() { hints <- h.Hint() }()
	}
	seen := make(map[uintptr]bool)
	for i := 0; i < n; i++ {
		seen[<-hints] = true
	}
	assert.Greater(t, len(seen), 1, "distinct goroutine stacks should yield distinct hints in practice")
}
