package tlsf

import "unsafe"

// Resize implements §4.6's four-phase resize of buf (previously returned by
// Allocate/AllocateAligned/Resize) to newSize bytes, trying progressively
// more expensive strategies and falling through to the next only when the
// previous one can't satisfy the request:
//
//  1. Shrink in place, splitting the freed tail off as a new block.
//  2. Grow forward, absorbing the physically next block if it's free and
//     large enough, splitting its remainder back off if any is left.
//  3. Grow backward into the physically previous block if it's free and
//     large enough, optionally also absorbing a free physical successor in
//     the same step when the predecessor alone isn't enough, sliding the
//     live payload down with an overlap-safe copy (Go's builtin copy,
//     unlike C's memcpy, is safe for overlapping slices sharing a backing
//     array).
//  4. Relocate: allocate a fresh block, copy min(old, new) bytes, release
//     the original.
//
// Resize returns nil (like Allocate) if every phase fails, in which case
// buf is left untouched and still owned by the caller. A nil buf allocates;
// a newSize of 0 releases buf and returns nil, matching realloc(3)'s edge
// cases rather than treating 0 as the smallest legal request size.
func (p *Pool) Resize(buf []byte, newSize int) []byte {
	if newSize < 0 {
		return nil
	}
	if buf == nil {
		return p.Allocate(newSize)
	}
	if newSize == 0 {
		p.Release(buf)
		return nil
	}
	adjusted, ok := adjustRequestSize(p.cfg, uintptr(newSize))
	if !ok {
		return nil
	}

	b := blockFromSlice(buf)
	full := blkSize(b)

	// Phase 1: shrink.
	if adjusted <= full {
		p.shrinkTrailing(b, adjusted)
		return payloadSlice(b)[:newSize]
	}

	// Phase 2: grow forward.
	if out, ok := p.growForward(b, adjusted); ok {
		return out[:newSize]
	}

	// Phase 3: grow backward.
	if out, ok := p.growBackward(b, adjusted, len(buf)); ok {
		return out[:newSize]
	}

	// Phase 4: relocate.
	fresh := p.Allocate(newSize)
	if fresh == nil {
		return nil
	}
	n := len(buf)
	if n > newSize {
		n = newSize
	}
	copy(fresh, buf[:n])
	p.Release(buf)
	return fresh
}

func (p *Pool) growForward(b block, adjusted uintptr) ([]byte, bool) {
	next := blkNextPhys(b)
	if !blkIsFree(next) {
		return nil, false
	}
	full := blkSize(b)
	combined := full + blkSize(next) + wordSize
	if combined < adjusted {
		return nil, false
	}
	p.remove(next)
	blkSetSize(b, combined)
	blkSetPrevFree(blkNextPhys(b), false)
	p.shrinkTrailing(b, adjusted)
	return payloadSlice(b), true
}

// growBackward is §4.6 phase 3: absorb the physically previous block if
// it's free and large enough, optionally also absorbing a free physical
// successor in the same step (phase 2 already tried the successor alone
// and failed, so it is only worth revisiting here in combination with the
// predecessor).
func (p *Pool) growBackward(b block, adjusted uintptr, oldLen int) ([]byte, bool) {
	if !blkIsPrevFree(b) {
		return nil, false
	}
	prev := blkPrevPhys(b)
	full := blkSize(b)
	combined := blkSize(prev) + full + wordSize

	if combined < adjusted {
		next := blkNextPhys(b)
		if !blkIsFree(next) {
			return nil, false
		}
		withNext := combined + blkSize(next) + wordSize
		if withNext < adjusted {
			return nil, false
		}
		p.remove(next)
		full += blkSize(next) + wordSize
		blkSetSize(b, full)
		combined = blkSize(prev) + full + wordSize
	}

	p.remove(prev)

	oldPayload := blkPayload(b)
	newPayload := blkPayload(prev)
	src := unsafe.Slice((*byte)(oldPayload), oldLen)
	dst := unsafe.Slice((*byte)(newPayload), oldLen)
	copy(dst, src)

	blkSetSize(prev, combined)
	blkSetFree(prev, false)
	blkSetPrevFree(blkNextPhys(prev), false)
	p.shrinkTrailing(prev, adjusted)
	return payloadSlice(prev), true
}
