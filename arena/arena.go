// Package arena implements the §4.9/§5 thread-safe facade over N
// independent tlsf.Pool instances: callers are hashed to a "home" arena so
// most allocate/release traffic never contends, with fallbacks that keep
// every call making progress even when arenas are busy.
package arena

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/sysprog21/tlsf-go/internal/cacheline"
	"github.com/sysprog21/tlsf-go/tlsf"
)

// Config configures an Arenas facade. Zero Count and Pool select the §6
// defaults: four arenas and the default tlsf.Config. Hint has no default:
// New rejects a nil Hint, and callers that want backing.GoroutineHint pass
// it themselves (arena doesn't import backing, to keep the facade usable
// with a caller-supplied ThreadHint only).
type Config struct {
	Count int
	Pool  tlsf.Config
	Hint  ThreadHint
	// NewLocker, if set, replaces the default sync.Mutex-backed Locker for
	// every arena record. Mainly useful for tests that want to observe
	// lock/unlock pairs.
	NewLocker func() Locker
}

const defaultCount = 4

func (c Config) withDefaults() Config {
	if c.Count == 0 {
		c.Count = defaultCount
	}
	if c.NewLocker == nil {
		c.NewLocker = newDefaultLocker
	}
	return c
}

type recordCore struct {
	pool tlsf.Pool
	lock Locker
}

const recordPadSize = (cacheline.Size - int(unsafe.Sizeof(recordCore{}))%cacheline.Size) % cacheline.Size

// record is one arena's pool and lock, padded to a whole number of cache
// lines so two arenas' hot fields (the pool's free-list bitmaps, the lock's
// state word) never share a line (§4.9).
type record struct {
	recordCore
	_ [recordPadSize]byte
}

// Arenas is the thread-safe facade: ARENA_COUNT independent pools, a
// thread-hint hash to pick a home arena, and a sorted ownership index to
// route Release/Resize back to the arena that actually owns a pointer.
type Arenas struct {
	records []record
	bases   []uintptr // sorted ascending
	order   []int     // order[i] is the arena index owning bases[i]
	hint    ThreadHint
	count   int
}

// New partitions mem into cfg.Count (default 4) equal static pools and
// returns the resulting facade. mem must be large enough that every
// partition can hold at least one minimal block.
func New(mem []byte, cfg Config) (*Arenas, error) {
	cfg = cfg.withDefaults()
	if cfg.Count < 1 {
		return nil, fmt.Errorf("arena: count must be >= 1, got %d", cfg.Count)
	}
	if cfg.Hint == nil {
		return nil, fmt.Errorf("arena: Config.Hint is required")
	}
	chunk := len(mem) / cfg.Count
	if chunk == 0 {
		return nil, fmt.Errorf("arena: %d bytes too small for %d arenas", len(mem), cfg.Count)
	}

	a := &Arenas{
		records: make([]record, cfg.Count),
		hint:    cfg.Hint,
		count:   cfg.Count,
	}
	for i := 0; i < cfg.Count; i++ {
		lo := i * chunk
		hi := lo + chunk
		if i == cfg.Count-1 {
			hi = len(mem)
		}
		if n := a.records[i].pool.Init(mem[lo:hi], cfg.Pool); n == 0 {
			return nil, fmt.Errorf("arena: partition %d too small or misconfigured", i)
		}
		a.records[i].lock = cfg.NewLocker()
	}
	a.buildOwnershipIndex()
	return a, nil
}

func (a *Arenas) buildOwnershipIndex() {
	type entry struct {
		base uintptr
		idx  int
	}
	entries := make([]entry, len(a.records))
	for i := range a.records {
		entries[i] = entry{a.records[i].pool.Base(), i}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].base < entries[j].base })

	a.bases = make([]uintptr, len(entries))
	a.order = make([]int, len(entries))
	for i, e := range entries {
		a.bases[i] = e.base
		a.order[i] = e.idx
	}
}

// Count returns the number of arenas.
func (a *Arenas) Count() int { return a.count }

// Allocate hashes the configured ThreadHint to a home arena and blocks to
// acquire it, per §4.9/§5. If the home arena can't satisfy the request (it
// may simply be full, not necessarily contended), the other arenas are
// tried in preferred order: first a non-blocking sweep so a busy-but-free
// arena never makes this call wait behind one that's merely contended,
// then — only if every other arena was busy too — a blocking sweep of
// those same arenas, so a call only returns nil once every arena has
// genuinely been given a chance to satisfy it under lock.
func (a *Arenas) Allocate(size int) []byte {
	home := homeIndex(a.hint.Hint(), a.count)

	r := &a.records[home]
	r.lock.Lock()
	buf := r.pool.Allocate(size)
	r.lock.Unlock()
	if buf != nil {
		return buf
	}

	for i := 1; i < a.count; i++ {
		idx := (home + i) % a.count
		r := &a.records[idx]
		if !r.lock.TryLock() {
			continue
		}
		buf := r.pool.Allocate(size)
		r.lock.Unlock()
		if buf != nil {
			return buf
		}
	}

	for i := 1; i < a.count; i++ {
		idx := (home + i) % a.count
		r := &a.records[idx]
		r.lock.Lock()
		buf := r.pool.Allocate(size)
		r.lock.Unlock()
		if buf != nil {
			return buf
		}
	}

	return nil
}

// Release returns buf to whichever arena owns it, found via the sorted
// ownership index. Releasing a pointer this facade didn't hand out is a
// no-op, matching §7's "undefined, but detectable in debug builds at the
// pool level" contract — here it's simply not found.
func (a *Arenas) Release(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	idx := a.ownerOf(unsafe.Pointer(&buf[:1][0]))
	if idx < 0 {
		return
	}
	r := &a.records[idx]
	r.lock.Lock()
	r.pool.Release(buf)
	r.lock.Unlock()
}

// Resize grows or shrinks buf in place within its owning arena when
// possible, falling back to allocating in (possibly) a different arena,
// copying, and releasing the original when the owning arena can't satisfy
// the new size.
//
// §4.9 Open Question 1: the owning arena's lock is released between the
// failed in-place Resize and the fallback allocate+copy+release below,
// rather than held across both arenas for the whole call — documented as
// correct-as-specified rather than redesigned (see DESIGN.md). A caller
// that resizes and releases the same pointer from two goroutines without
// its own synchronization was already racing before this fallback exists.
func (a *Arenas) Resize(buf []byte, newSize int) []byte {
	if buf == nil {
		return a.Allocate(newSize)
	}
	if newSize == 0 {
		a.Release(buf)
		return nil
	}
	idx := a.ownerOf(unsafe.Pointer(&buf[0]))
	if idx < 0 {
		return nil
	}
	r := &a.records[idx]
	r.lock.Lock()
	out := r.pool.Resize(buf, newSize)
	r.lock.Unlock()
	if out != nil {
		return out
	}

	fresh := a.Allocate(newSize)
	if fresh == nil {
		return nil
	}
	n := len(buf)
	if n > newSize {
		n = newSize
	}
	copy(fresh, buf[:n])
	a.Release(buf)
	return fresh
}
