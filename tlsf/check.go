package tlsf

import (
	"fmt"
	"unsafe"
)

// Check walks the pool in three phases and returns the first inconsistency
// found, or nil if the pool is internally consistent (§4.8/§8):
//
//  1. The physical block chain: every block's declared size keeps it within
//     the arena, PREV_FREE_BIT agrees with the physically previous block's
//     actual free state, and the boundary tag (when valid) points at that
//     block.
//  2. The free-list index: every FL/SL bitmap bit set has a non-sentinel
//     head, every listed block is actually marked free and maps back to the
//     bin it's filed under, and bits that are clear have an empty list.
//  3. Each free list is acyclic, checked with Floyd's tortoise-and-hare so
//     a corrupted list that loops back on itself is caught in bounded time
//     rather than hanging a subsequent allocate/release call.
func (p *Pool) Check() error {
	if p.size == 0 {
		return nil
	}
	if err := p.checkChain(); err != nil {
		return err
	}
	if err := p.checkIndex(); err != nil {
		return err
	}
	return p.checkAcyclic()
}

func (p *Pool) checkChain() error {
	lo := uintptr(p.base)
	hi := lo + p.size
	cur := p.base
	prevWasFree := false
	for {
		addr := uintptr(cur)
		if addr < lo || addr+wordSize > hi {
			return fmt.Errorf("tlsf: block at %#x escapes arena [%#x, %#x)", addr, lo, hi)
		}
		if blkIsPrevFree(cur) != prevWasFree {
			return fmt.Errorf("tlsf: block at %#x PREV_FREE_BIT disagrees with predecessor", addr)
		}
		if prevWasFree {
			prev := blkPrevPhys(cur)
			if blkNextPhys(prev) != cur {
				return fmt.Errorf("tlsf: boundary tag at %#x does not point back at predecessor", addr)
			}
		}
		size := blkSize(cur)
		if size == 0 {
			return nil // sentinel reached
		}
		if size < blockSizeMin && blkIsFree(cur) {
			return fmt.Errorf("tlsf: free block at %#x smaller than BLOCK_SIZE_MIN", addr)
		}
		next := blkNextPhys(cur)
		if uintptr(next) <= addr {
			return fmt.Errorf("tlsf: block at %#x has non-increasing next-physical pointer", addr)
		}
		prevWasFree = blkIsFree(cur)
		cur = next
	}
}

func (p *Pool) checkIndex() error {
	sp := p.sentinelPtr()
	for fl := range p.head {
		if (p.flBitmap&(1<<uint(fl)) != 0) != (p.slBitmap[fl] != 0) {
			return fmt.Errorf("tlsf: FL bitmap bit disagrees with SL bitmap row (fl=%d)", fl)
		}
		for sl := range p.head[fl] {
			b := p.head[fl][sl]
			flBit := p.flBitmap&(1<<uint(fl)) != 0
			slBit := p.slBitmap[fl]&(1<<uint(sl)) != 0
			empty := b == p.sentinelPtr()

			if empty && slBit {
				return fmt.Errorf("tlsf: SL bitmap set for empty bin (fl=%d sl=%d)", fl, sl)
			}
			if !empty {
				if !slBit {
					return fmt.Errorf("tlsf: SL bitmap clear for non-empty bin (fl=%d sl=%d)", fl, sl)
				}
				if !flBit {
					return fmt.Errorf("tlsf: FL bitmap clear for non-empty row (fl=%d)", fl)
				}
				if err := checkListAcyclic(b, sp); err != nil {
					return fmt.Errorf("tlsf: free list (fl=%d sl=%d): %w", fl, sl, err)
				}
				for n := b; n != sp; n = *nextFreeSlot(n) {
					if !blkIsFree(n) {
						return fmt.Errorf("tlsf: block in free list (fl=%d sl=%d) is not marked free", fl, sl)
					}
					gotFL, gotSL := mapping(blkSize(n))
					if gotFL != fl || gotSL != sl {
						return fmt.Errorf("tlsf: block filed at (fl=%d sl=%d) maps to (fl=%d sl=%d)", fl, sl, gotFL, gotSL)
					}
				}
			}
		}
	}
	return nil
}

func (p *Pool) checkAcyclic() error {
	for fl := range p.head {
		for sl := range p.head[fl] {
			if err := checkListAcyclic(p.head[fl][sl], p.sentinelPtr()); err != nil {
				return fmt.Errorf("tlsf: free list (fl=%d sl=%d): %w", fl, sl, err)
			}
		}
	}
	return nil
}

// checkListAcyclic runs Floyd's cycle detection over a free list's
// next_free chain, starting at head and terminating at sentinel.
func checkListAcyclic(head, sentinel unsafe.Pointer) error {
	if head == sentinel {
		return nil
	}
	slow, fast := head, head
	for {
		fast = *nextFreeSlot(fast)
		if fast == sentinel {
			return nil
		}
		fast = *nextFreeSlot(fast)
		if fast == sentinel {
			return nil
		}
		slow = *nextFreeSlot(slow)
		if slow == fast {
			return fmt.Errorf("cycle detected")
		}
	}
}
