package arena

import "sync"

// Locker is the §5/§6 per-arena lock callback: init, destroy, a blocking
// acquire, a non-blocking acquire, and release. The facade blocking-
// acquires its preferred arena first; only when that arena can't satisfy a
// request does it fall back to TryLock-ing the other arenas (to avoid
// blocking behind one that's merely contended while another sits free),
// and only Lock()s those other arenas if every one of them was busy too.
type Locker interface {
	Lock()
	TryLock() bool
	Unlock()
}

// mutexLocker is the default Locker, backed by sync.Mutex. No example repo
// in the corpus defines an alternative blocking+non-blocking mutex
// abstraction (see DESIGN.md); sync.Mutex.TryLock, added in Go 1.18, is
// exactly the non-blocking primitive §5 asks for.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock()         { l.mu.Lock() }
func (l *mutexLocker) TryLock() bool { return l.mu.TryLock() }
func (l *mutexLocker) Unlock()       { l.mu.Unlock() }

// newDefaultLocker constructs the default sync.Mutex-backed Locker. Init
// and Destroy have no work to do for sync.Mutex (its zero value is ready to
// use, and it needs no teardown), so they aren't exposed on Locker itself —
// construction and garbage collection already cover §5's init/destroy
// pair.
func newDefaultLocker() Locker {
	return &mutexLocker{}
}
