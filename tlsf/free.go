package tlsf

import "unsafe"

// Release returns buf, previously returned by Allocate/AllocateAligned/
// Resize, to the pool, coalescing with the physically adjacent block on
// either side when free. O(1): at most two free-list removals and one
// insertion, no loop over other blocks (§4.5).
//
// Releasing a nil buf, or any buf with zero capacity, is a no-op. Releasing
// a buf not obtained from this pool is undefined per §7; debug builds
// assert the free bit wasn't already set.
func (p *Pool) Release(buf []byte) {
	b := blockFromSlice(buf)
	if b == nil {
		return
	}
	assertNotFree(b)

	blkSetFree(b, true)
	next := blkNextPhys(b)
	blkSetPrevFree(next, true)

	cur := b
	if blkIsFree(next) {
		p.remove(next)
		blkSetSize(cur, blkSize(cur)+blkSize(next)+wordSize)
	}
	if blkIsPrevFree(cur) {
		prev := blkPrevPhys(cur)
		p.remove(prev)
		blkSetSize(prev, blkSize(prev)+blkSize(cur)+wordSize)
		cur = prev
	}

	after := blkNextPhys(cur)
	blkSetPrevPhys(after, cur)
	blkSetPrevFree(after, true)

	p.insert(cur)

	if !p.isStatic && p.store != nil {
		p.shrinkOnLastFree(cur)
	}
}

// shrinkOnLastFree is §4.5's growable-pool release hook: when the block a
// release just produced is the pool's last one (its physical successor is
// the sentinel), offer that trailing space back to the backing store
// instead of leaving it sitting free forever. A store that declines —
// returning a buffer no smaller than what it already holds, as the default
// backing.MCacheBackingStore does whenever asked to shrink — simply leaves
// the free block in place; this is bookkeeping only, never a requirement
// that the store actually reclaim anything.
func (p *Pool) shrinkOnLastFree(cur block) {
	sentinel := unsafe.Add(p.base, int(p.size)-wordSize)
	if blkNextPhys(cur) != sentinel {
		return
	}
	reqBytes := uintptr(cur) - uintptr(p.base) + wordSize
	if reqBytes >= p.size {
		return
	}

	prevFree := blkIsPrevFree(cur)
	oldBase := p.base

	newMem := p.store.Resize(p.mem, int(reqBytes))
	if newMem == nil || uintptr(len(newMem)) != reqBytes {
		return
	}

	p.remove(cur)

	newBase := unsafe.Pointer(&newMem[0])
	if delta := int(uintptr(newBase)) - int(uintptr(oldBase)); delta != 0 {
		p.rebase(reqBytes, delta)
	}

	p.mem = newMem
	p.base = newBase
	p.size = reqBytes

	newSentinel := unsafe.Add(p.base, int(p.size)-wordSize)
	setFreshHeader(newSentinel, 0, false, prevFree)
}

// coalesceForward merges b with its physically next block if free, without
// touching b's own prev-free status. Used by shrinkTrailing, where the
// newly-freed tail can never have a free predecessor (its predecessor is
// the block being shrunk, still in use).
func (p *Pool) coalesceForward(b block) {
	next := blkNextPhys(b)
	if blkIsFree(next) {
		p.remove(next)
		blkSetSize(b, blkSize(b)+blkSize(next)+wordSize)
	}
	after := blkNextPhys(b)
	blkSetPrevPhys(after, b)
	blkSetPrevFree(after, true)
	p.insert(b)
}

// UsableSize returns the payload capacity of a block previously returned by
// Allocate/AllocateAligned/Resize — which may exceed the originally
// requested size due to alignment/bin rounding. It needs no Pool receiver:
// the size is self-described by the block's own header word.
func UsableSize(buf []byte) int {
	b := blockFromSlice(buf)
	if b == nil {
		return 0
	}
	return int(blkSize(b))
}
