package tlsf

import (
	"unsafe"

	"github.com/sysprog21/tlsf-go/internal/bitops"
)

// sentinelPtr returns the address of the pool's embedded null sentinel: a
// real, writable block-shaped slot (see Pool.sentinel) that insert/remove
// write through unconditionally instead of branching on an empty list.
func (p *Pool) sentinelPtr() block {
	return unsafe.Pointer(&p.sentinel[0])
}

// insert threads b onto the head of its size class's free list and sets the
// corresponding FL/SL bitmap bits. Every pointer write below is
// unconditional: when the list was empty, the "old head" is the sentinel,
// a real memory location, so writing its prev_free slot is harmless.
func (p *Pool) insert(b block) {
	fl, sl := mapping(blkSize(b))
	old := p.head[fl][sl]

	*nextFreeSlot(b) = old
	*prevFreeSlot(b) = p.sentinelPtr()
	*prevFreeSlot(old) = b

	p.head[fl][sl] = b
	p.flBitmap |= 1 << uint(fl)
	p.slBitmap[fl] |= 1 << uint(sl)
}

// remove splices b out of its free list. Neighbor pointer writes are
// unconditional for the same reason as insert; only the "was this block the
// head" check is a genuine branch, needed to keep the bitmap in sync.
func (p *Pool) remove(b block) {
	fl, sl := mapping(blkSize(b))
	next := *nextFreeSlot(b)
	prev := *prevFreeSlot(b)

	*nextFreeSlot(prev) = next
	*prevFreeSlot(next) = prev

	if p.head[fl][sl] == b {
		p.head[fl][sl] = next
		if next == p.sentinelPtr() {
			p.slBitmap[fl] &^= 1 << uint(sl)
			if p.slBitmap[fl] == 0 {
				p.flBitmap &^= 1 << uint(fl)
			}
		}
	}
}

// findSuitable implements §4.2's search: mask SL_BITMAP[fl] to bins >= sl;
// if none, mask FL_BITMAP to rows > fl and take the first set row, then the
// first set bin in that row. Returns the head block and the (fl, sl) it was
// actually found at (which may be higher than requested).
func (p *Pool) findSuitable(fl, sl int) (b block, foundFL, foundSL int, ok bool) {
	slMap := p.slBitmap[fl] &^ (uint32(1)<<uint(sl) - 1)
	if slMap == 0 {
		flMap := p.flBitmap &^ (uint32(1)<<uint(fl+1) - 1)
		if flMap == 0 {
			return nil, 0, 0, false
		}
		fl = bitops.Ctz32(flMap)
		slMap = p.slBitmap[fl]
	}
	sl = bitops.Ctz32(slMap)
	return p.head[fl][sl], fl, sl, true
}
