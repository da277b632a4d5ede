package tlsf

import "github.com/sysprog21/tlsf-go/internal/bitops"

func log2Floor(x uintptr) int {
	return bitops.Log2Floor(uint(x))
}

// mapping computes the (fl, sl) free-list bin containing size, per §4.1.
// size must be > 0. Both the linear regime (size < BLOCK_SIZE_SMALL) and the
// logarithmic regime are computed unconditionally and combined through a
// mask derived from comparing t against FL_SHIFT, rather than branching to
// one code path or the other.
func mapping(size uintptr) (fl, sl int) {
	t := log2Floor(size)

	linFL, linSL := 0, int(size>>alignShift)

	logFL := t - flShift + 1
	// shift wraps to a huge uint when t < slShift; a shift count at or past
	// the operand width yields 0 in Go, which the mask below discards
	// whenever the linear regime is the one that applies.
	shift := uint(t - slShift)
	logSL := int(size>>shift) ^ slCount

	mask := 0
	if t < flShift {
		mask = -1
	}
	fl = (linFL & mask) | (logFL &^ mask)
	sl = (linSL & mask) | (logSL &^ mask)
	return fl, sl
}

// binFloor returns the smallest size mapping to (fl, sl).
func binFloor(fl, sl int) uintptr {
	if fl == 0 {
		return uintptr(sl) << alignShift
	}
	base := uintptr(1) << uint(fl+flShift-1)
	step := base >> slShift
	return base + uintptr(sl)*step
}

// roundUpToBin rounds size up to the smallest value whose bin floor is >=
// size, so that searching the resulting bin (or higher) is guaranteed to
// find a block large enough.
func roundUpToBin(size uintptr) uintptr {
	if size < blockSizeSmall {
		return size
	}
	t := log2Floor(size)
	shift := uint(t - slShift)
	rounding := (uintptr(1) << shift) - 1
	return (size + rounding) &^ rounding
}

// adjustRequestSize validates and rounds a raw request per §4.3: the bound
// check against the configured maximum happens on the raw size first, per
// §9's integer-overflow note, so that rounding can never wrap a
// too-large request back under the limit.
func adjustRequestSize(cfg Config, reqSize uintptr) (uintptr, bool) {
	maxSize := cfg.maxPoolSize()
	if reqSize > maxSize {
		return 0, false
	}
	adjusted := alignUp(reqSize, alignSize)
	if adjusted < blockSizeMin {
		adjusted = blockSizeMin
	}
	if adjusted > maxSize {
		return 0, false
	}
	return adjusted, true
}

func alignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}
