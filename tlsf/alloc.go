package tlsf

import (
	"unsafe"

	"github.com/sysprog21/tlsf-go/internal/bitops"
)

// Allocate returns a []byte of length size (its capacity is the block's
// usable size), or nil if size exceeds the configured maximum or no suitable block exists
// and (for a growable pool) the backing store can't supply more memory.
// Worst case is O(1): one bitmap search, at most one split, no loop whose
// bound depends on live allocation count (§4.3).
func (p *Pool) Allocate(size int) []byte {
	if size < 0 {
		return nil
	}
	adjusted, ok := adjustRequestSize(p.cfg, uintptr(size))
	if !ok {
		return nil
	}
	b, ok := p.allocateBlock(adjusted)
	if !ok {
		return nil
	}
	return payloadSlice(b)[:size]
}

// AllocateAligned is §4.4: it returns align-byte-aligned memory by
// allocating enough slack to guarantee a suitably aligned interior exists,
// then trimming the unused head (and tail, via the normal split path) as
// separate free blocks. align must be a power of two.
func (p *Pool) AllocateAligned(align, size int) []byte {
	if size < 0 || align <= 0 || align&(align-1) != 0 {
		return nil
	}
	if align <= alignSize {
		return p.Allocate(size)
	}

	adjusted, ok := adjustRequestSize(p.cfg, uintptr(size))
	if !ok {
		return nil
	}
	// Worst case, aligning inside a block costs align + BLOCK_SIZE_MIN bytes
	// of head slack: a gap too small to hold a free block (header word plus
	// BLOCK_SIZE_MIN) is widened by align until it can.
	gross := adjusted + uintptr(align) + blockSizeMin
	gross, ok = adjustRequestSize(p.cfg, gross)
	if !ok {
		return nil
	}

	b, ok := p.allocateBlock(gross)
	if !ok {
		return nil
	}

	payload := uintptr(blkPayload(b))
	misalign := payload % uintptr(align)
	if misalign == 0 {
		// Already aligned; shrink the tail like a normal allocation would.
		p.shrinkTrailing(b, adjusted)
		return payloadSlice(b)[:size]
	}

	headSlack := uintptr(align) - misalign
	for headSlack < wordSize+blockSizeMin {
		headSlack += uintptr(align)
	}

	newB := p.splitHead(b, headSlack)
	p.shrinkTrailing(newB, adjusted)
	return payloadSlice(newB)[:size]
}

// allocateBlock finds, removes and (if beneficial) splits a block of at
// least adjusted bytes, returning its struct-start address.
func (p *Pool) allocateBlock(adjusted uintptr) (block, bool) {
	if adjusted < blockSizeSmall {
		sl := int(adjusted >> alignShift)
		mask := p.slBitmap[0] &^ (uint32(1)<<uint(sl) - 1)
		if mask != 0 {
			foundSL := bitops.Ctz32(mask)
			b := p.head[0][foundSL]
			p.remove(b)
			p.useBlock(b, adjusted)
			return b, true
		}
		return p.allocateGeneric(adjusted)
	}
	return p.allocateGeneric(adjusted)
}

// allocateGeneric rounds adjusted up to its own bin's exact floor (so any
// block living in that bin is guaranteed big enough), searches for it, and
// carves out exactly that rounded amount — not the floor of whatever
// (possibly much larger) bin find_suitable had to promote to when the
// requested bin was empty. Using the promoted bin's floor here would hand
// the caller a block sized for an unrelated, larger request (§9's effective-
// size note is about using the bin-exact "rounded" value instead of the
// caller's raw, unaligned size — not about the bin the search happened to
// land in).
func (p *Pool) allocateGeneric(adjusted uintptr) (block, bool) {
	rounded := roundUpToBin(adjusted)
	fl, sl := mapping(rounded)
	b, _, _, ok := p.findSuitable(fl, sl)
	if !ok {
		if p.grow(p.size+rounded+2*wordSize) == 0 {
			return nil, false
		}
		fl, sl = mapping(rounded)
		b, _, _, ok = p.findSuitable(fl, sl)
		if !ok {
			return nil, false
		}
	}
	p.remove(b)
	p.useBlock(b, rounded)
	return b, true
}

// useBlock marks a just-removed free block of (at least) effSize bytes as
// allocated, splitting the trailing remainder into a new free block when
// it's big enough to be worth the extra header.
func (p *Pool) useBlock(b block, effSize uintptr) {
	full := blkSize(b)
	remainder := full - effSize
	threshold := p.cfg.SplitThreshold + wordSize

	if remainder >= threshold {
		blkSetSize(b, effSize)
		newB := blkNextPhys(b)
		newSize := remainder - wordSize
		setFreshHeader(newB, newSize, true, false)

		after := blkNextPhys(newB)
		blkSetPrevPhys(after, newB)
		blkSetPrevFree(after, true)

		p.insert(newB)
	}
	blkSetFree(b, false)
	blkSetPrevFree(blkNextPhys(b), false)
}

// shrinkTrailing shrinks an already-removed, in-use block down to
// keepSize, splitting the freed tail off when worthwhile — the same shape
// as useBlock's split, reused from AllocateAligned and Resize.
func (p *Pool) shrinkTrailing(b block, keepSize uintptr) {
	full := blkSize(b)
	if full <= keepSize {
		return
	}
	remainder := full - keepSize
	if remainder < p.cfg.SplitThreshold+wordSize {
		return
	}
	blkSetSize(b, keepSize)
	newB := blkNextPhys(b)
	setFreshHeader(newB, remainder-wordSize, true, false)

	after := blkNextPhys(newB)
	blkSetPrevPhys(after, newB)
	blkSetPrevFree(after, true)

	p.coalesceForward(newB)
}

// splitHead carves headSlack bytes off the front of an in-use block b,
// freeing them as their own block, and returns the struct-start address of
// the remaining (still in-use) tail.
func (p *Pool) splitHead(b block, headSlack uintptr) block {
	full := blkSize(b)
	newB := unsafe.Add(b, int(headSlack))
	blkSetSize(b, headSlack-wordSize)
	blkSetFree(b, true)

	newSize := full - headSlack
	setFreshHeader(newB, newSize, false, true)
	blkSetPrevPhys(newB, b)

	after := blkNextPhys(newB)
	blkSetPrevFree(after, false)

	p.insert(b)
	return newB
}
