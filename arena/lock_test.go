package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutexLockerTryLock(t *testing.T) {
	l := newDefaultLocker()
	assert.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestMutexLockerLockUnlock(t *testing.T) {
	l := newDefaultLocker()
	l.Lock()
	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
		l.Unlock()
	}()
	l.Unlock()
	<-acquired // the goroutine's Lock only succeeds after our Unlock above
}
