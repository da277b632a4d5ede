package arena

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ScenarioF: several goroutines hammer a multi-arena facade concurrently
// with per-goroutine fill patterns; after every goroutine finishes and
// releases everything it holds, the pool must show zero used bytes and
// pass its consistency check, and no goroutine must ever observe another's
// pattern bleeding into its own buffer.
func TestScenarioThreadFacadeConcurrentChurn(t *testing.T) {
	const arenaCount = 4
	const goroutines = 8
	const opsPerGoroutine = 2000

	a, err := New(make([]byte, 4<<20), Config{Count: arenaCount, Hint: fixedHint(0)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		pattern := byte(g + 1)
		go func(pattern byte) {
			defer wg.Done()
			var live [][]byte
			for i := 0; i < opsPerGoroutine; i++ {
				switch i % 3 {
				case 0:
					sz := 16 + (i % 500)
					buf := a.Allocate(sz)
					if buf == nil {
						continue
					}
					for j := range buf {
						buf[j] = pattern
					}
					live = append(live, buf)
				case 1:
					if len(live) == 0 {
						continue
					}
					buf := live[len(live)-1]
					live = live[:len(live)-1]
					for j, v := range buf {
						if v != pattern {
							errs <- fmt.Errorf("pattern mismatch at byte %d: want %d got %d", j, pattern, v)
							return
						}
					}
					a.Release(buf)
				case 2:
					if len(live) == 0 {
						continue
					}
					buf := live[len(live)-1]
					grown := a.Resize(buf, len(buf)+64)
					if grown == nil {
						continue
					}
					for j := 0; j < len(buf); j++ {
						if grown[j] != pattern {
							errs <- fmt.Errorf("pattern mismatch at byte %d: want %d got %d", j, pattern, grown[j])
							return
						}
					}
					for j := len(buf); j < len(grown); j++ {
						grown[j] = pattern
					}
					live[len(live)-1] = grown
				}
			}
			for _, buf := range live {
				a.Release(buf)
			}
		}(pattern)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}

	for i := range a.records {
		s := a.records[i].pool.Stats()
		assert.Equal(t, 0, s.UsedBlocks, "arena %d leaked allocations", i)
		require.NoError(t, a.records[i].pool.Check(), "arena %d", i)
	}
}
