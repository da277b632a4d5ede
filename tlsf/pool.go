// Package tlsf implements a Two-Level Segregated Fit dynamic memory
// allocator: O(1) worst-case allocate, release and two-way physical
// coalescing over a caller-supplied or backing-store-grown byte arena, with
// a two-level bitmap free-list index (§3/§4 of the design this package
// follows).
//
// A Pool is a value type once constructed; like sync.Mutex it must not be
// copied after Init, since its free-list matrix holds raw pointers into its
// own arena.
package tlsf

import (
	"fmt"
	"unsafe"
)

// BackingStore is the §6 "resize_backing" callback for a growable pool.
// Resize is given the pool's current content (nil/empty for a pool that has
// never been grown) and a target total size, and must return a byte slice
// of at least reqBytes whose first len(current) bytes equal current's — the
// pool's own content, verbatim. It returns nil on failure. Calling Resize
// with reqBytes already satisfied by the current slice's length must be a
// no-op that returns current unchanged (the §6 idempotence requirement).
//
// The returned slice's backing array may differ from current's: the pool
// engine detects the address change and rewrites every internal pointer
// by the resulting delta before linking the new space in. Pointers the
// pool has already handed to callers (via Allocate et al.) are NOT rewritten
// — per §6 "possibly moved", a caller must not retain an allocated pointer
// across an operation that can trigger growth on a pool whose BackingStore
// may relocate.
type BackingStore interface {
	Resize(current []byte, reqBytes int) []byte
}

// Pool is a TLSF memory pool: either a fixed pool over caller-supplied
// memory (Init, optionally extended with Append) or a growable pool backed
// by a BackingStore (NewGrowable).
type Pool struct {
	mem  []byte
	base unsafe.Pointer
	size uintptr

	isStatic bool // true: Init/Append only. false: grows via store.
	store    BackingStore

	flBitmap uint32
	slBitmap []uint32
	head     [][]block

	// sentinel is the embedded null free-list terminator: a real,
	// 4-word-wide scratch block so insert/remove can write through it
	// unconditionally. Only the next_free/prev_free slots (words 2, 3) are
	// ever touched.
	sentinel [4]uintptr

	cfg Config
}

// New constructs a fixed pool over mem. It returns an error if mem is too
// small to hold even one block after alignment, or cfg is invalid.
func New(mem []byte, cfg Config) (*Pool, error) {
	p := &Pool{}
	if n := p.Init(mem, cfg); n == 0 {
		return nil, fmt.Errorf("tlsf: arena too small or misconfigured (%d bytes)", len(mem))
	}
	return p, nil
}

// NewGrowable constructs a pool with no backing memory yet; its first
// Allocate call triggers store.Resize to obtain an initial arena.
func NewGrowable(store BackingStore, cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()
	if !cfg.valid() {
		return nil, fmt.Errorf("tlsf: invalid FLMax %d", cfg.FLMax)
	}
	p := &Pool{store: store}
	p.resetIndex(cfg)
	return p, nil
}

// Init zeroes the handle and places one free block spanning the aligned
// interior of mem, per §6. It returns the usable byte count, or 0 if mem is
// too small or cfg is invalid.
func (p *Pool) Init(mem []byte, cfg Config) int {
	cfg = cfg.withDefaults()
	if !cfg.valid() {
		return 0
	}
	p.resetIndex(cfg)
	p.isStatic = true

	aligned, ok := alignArena(mem)
	if !ok {
		return 0
	}
	p.mem = aligned
	p.base = unsafe.Pointer(&aligned[0])
	p.size = uintptr(len(aligned))

	p.layoutFreshPool()
	return int(p.size) - 2*wordSize
}

func (p *Pool) resetIndex(cfg Config) {
	fc := cfg.flCount()
	*p = Pool{
		mem:      p.mem,
		isStatic: p.isStatic,
		store:    p.store,
		cfg:      cfg,
		slBitmap: make([]uint32, fc),
		head:     make([][]block, fc),
	}
	for i := range p.head {
		p.head[i] = make([]block, slCount)
	}
	sp := p.sentinelPtr()
	for i := range p.head {
		for j := range p.head[i] {
			p.head[i][j] = sp
		}
	}
}

// alignArena returns the ALIGN_SIZE-aligned interior of mem (skipping a
// leading fragment if &mem[0] isn't already aligned, and truncating any
// trailing unaligned fragment), or ok=false if nothing usable remains.
func alignArena(mem []byte) (aligned []byte, ok bool) {
	if len(mem) == 0 {
		return nil, false
	}
	base := uintptr(unsafe.Pointer(&mem[0]))
	skip := 0
	if rem := base % alignSize; rem != 0 {
		skip = int(alignSize - rem)
	}
	if skip >= len(mem) {
		return nil, false
	}
	rest := mem[skip:]
	n := len(rest) &^ (alignSize - 1)
	if n < int(2*wordSize+blockSizeMin) {
		return nil, false
	}
	return rest[:n], true
}

// layoutFreshPool places a single free block spanning the whole of p.mem,
// terminated by the zero-size sentinel, and indexes it.
func (p *Pool) layoutFreshPool() {
	s0 := p.base
	firstSize := p.size - 2*wordSize
	setFreshHeader(s0, firstSize, true, false)

	sentinel := blkNextPhys(s0)
	setFreshHeader(sentinel, 0, false, true)
	blkSetPrevPhys(sentinel, s0)

	p.insert(s0)
}

// Reset restores the pool to its just-initialized, single-free-block state
// in time proportional only to FL_COUNT × SL_COUNT, per §4.8. Static pools
// only; a growable pool with no backing memory yet is a no-op.
func (p *Pool) Reset() {
	if p.size == 0 {
		return
	}
	for i := range p.head {
		sp := p.sentinelPtr()
		for j := range p.head[i] {
			p.head[i][j] = sp
		}
		p.slBitmap[i] = 0
	}
	p.flBitmap = 0
	p.layoutFreshPool()
}

// Append extends a static pool with mem, which must be the slice
// immediately following the pool's current backing memory in address space
// (for example, a later slice of the same array Init was given an earlier
// slice of). It returns the number of bytes accepted, or 0 if mem is not
// adjacent, the pool is growable, FLMax's size bound would be exceeded, or
// mem is too small to hold a block.
func (p *Pool) Append(mem []byte) int {
	if !p.isStatic || p.size == 0 || len(mem) == 0 {
		return 0
	}
	curEnd := unsafe.Add(p.base, int(p.size))
	if unsafe.Pointer(&mem[0]) != curEnd {
		return 0
	}
	if p.size+uintptr(len(mem)) > p.cfg.maxPoolSize() {
		return 0
	}
	newMem := unsafe.Slice((*byte)(p.base), int(p.size)+len(mem))
	return p.relink(newMem)
}

// grow asks the backing store for at least reqBytes total and links in
// whatever new space results. It returns the number of new bytes accepted.
func (p *Pool) grow(reqBytes uintptr) int {
	if p.isStatic || p.store == nil {
		return 0
	}
	if reqBytes <= p.size {
		return 0
	}
	newMem := p.store.Resize(p.mem, int(reqBytes))
	if newMem == nil || uintptr(len(newMem)) < reqBytes {
		return 0
	}
	return p.relink(newMem)
}

// relink is the common tail of Append and grow: it accounts for a possible
// base-address change, then either lays out a fresh pool (first-ever
// growth) or splices the newly available space onto the existing chain.
func (p *Pool) relink(newMem []byte) int {
	oldBase, oldSize := p.base, p.size

	if oldSize == 0 {
		aligned, ok := alignArena(newMem)
		if !ok {
			return 0
		}
		p.mem = aligned
		p.base = unsafe.Pointer(&aligned[0])
		p.size = uintptr(len(aligned))
		p.layoutFreshPool()
		return int(p.size) - 2*wordSize
	}

	grownBytes := len(newMem) - int(oldSize)
	if grownBytes < wordSize+int(blockSizeMin) {
		// Too little new space to form a legal block: none of it is
		// accepted and the pool is left unchanged.
		return 0
	}

	newBase := unsafe.Pointer(&newMem[0])
	delta := int(uintptr(newBase)) - int(uintptr(oldBase))
	if delta != 0 {
		p.rebase(oldSize, delta)
	}
	p.mem = newMem
	p.base = newBase
	p.size = uintptr(len(newMem))

	oldSentinel := unsafe.Add(p.base, int(oldSize)-wordSize)

	freeSize := uintptr(grownBytes) - wordSize
	prevFree := blkIsPrevFree(oldSentinel)
	setFreshHeader(oldSentinel, freeSize, true, prevFree)
	newFree := oldSentinel

	newSentinel := unsafe.Add(p.base, int(p.size)-wordSize)
	setFreshHeader(newSentinel, 0, false, true)
	blkSetPrevPhys(newSentinel, newFree)

	if prevFree {
		pb := blkPrevPhys(newFree)
		p.remove(pb)
		merged := blkSize(pb) + freeSize + wordSize
		blkSetSize(pb, merged)
		blkSetPrevPhys(newSentinel, pb)
		p.insert(pb)
	} else {
		p.insert(newFree)
	}
	return grownBytes
}

// rebase rewrites every pointer-valued field reachable from the free-list
// index — the head matrix, and each free or prev-free-flagged block's
// links — by delta. It is called while p.base still holds the old address,
// and walks the relocated copy at p.base+delta; links to the embedded null
// sentinel, which does not move, are left as they are. This keeps the
// index correct when a BackingStore relocates the arena.
func (p *Pool) rebase(oldSize uintptr, delta int) {
	sp := p.sentinelPtr()
	for i := range p.head {
		for j := range p.head[i] {
			if p.head[i][j] != sp {
				p.head[i][j] = unsafe.Add(p.head[i][j], delta)
			}
		}
	}

	cur := unsafe.Add(p.base, delta)
	sentinel := unsafe.Add(cur, int(oldSize)-wordSize)
	for {
		if blkIsPrevFree(cur) {
			blkSetPrevPhys(cur, unsafe.Add(blkPrevPhys(cur), delta))
		}
		if blkIsFree(cur) {
			if n := *nextFreeSlot(cur); n != sp {
				*nextFreeSlot(cur) = unsafe.Add(n, delta)
			}
			if n := *prevFreeSlot(cur); n != sp {
				*prevFreeSlot(cur) = unsafe.Add(n, delta)
			}
		}
		if cur == sentinel {
			break
		}
		cur = blkNextPhys(cur)
	}
}

// IsStatic reports whether the pool was constructed via Init (true) rather
// than NewGrowable (false).
func (p *Pool) IsStatic() bool { return p.isStatic }

// Size returns the pool's total backing size in bytes (0 if never
// initialized).
func (p *Pool) Size() uintptr { return p.size }

// Base returns the pool's current arena base address, or 0 if never
// initialized. Used by the arena package to build its ownership index.
func (p *Pool) Base() uintptr { return uintptr(p.base) }

// Contains reports whether ptr falls within the pool's current arena span,
// used by the arena package's ownership lookup.
func (p *Pool) Contains(ptr unsafe.Pointer) bool {
	if p.size == 0 {
		return false
	}
	lo := uintptr(p.base)
	hi := lo + p.size
	u := uintptr(ptr)
	return u >= lo && u < hi
}
