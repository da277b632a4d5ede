package tlsf

// These mirror spec.md §3/§6's compile-time parameters. In Go they are
// construction-time (Config) rather than compile-time, except for the ones
// marked fixed below, which size the fixed-width free-list matrix and so
// stay true constants the way SL_COUNT is fixed in the spec.
const (
	// wordSize is BLOCK_OVERHEAD: one machine word. This module targets
	// 64-bit hosts, matching the teacher's own arena/offset arithmetic.
	wordSize = 8

	alignShift = 3
	alignSize  = 1 << alignShift // ALIGN_SIZE: 8

	slShift = 5
	slCount = 1 << slShift // SL_COUNT, fixed per §6

	flShift        = slShift + alignShift // FL_SHIFT
	blockSizeSmall = 1 << flShift         // BLOCK_SIZE_SMALL: 256

	// blockSizeMin is a free block's struct size minus one pointer: header
	// word + next_free + prev_free, the three words a free block needs.
	blockSizeMin = uintptr(3 * wordSize) // 24

	defaultFLMax = 39
	minFLMax     = flShift + 2
	maxFLMax     = flShift + 31 // 39: the FL bitmap is a uint32, 32 rows

	defaultSplitThreshold = blockSizeMin

	headerFreeBit     = uintptr(1)
	headerPrevFreeBit = uintptr(2)
	headerFlagsMask   = headerFreeBit | headerPrevFreeBit
)

// Config holds the construction-time knobs §6 lists as compile-time
// parameters: FL_MAX (bounds the largest representable block and therefore
// the size of the free-list matrix) and SPLIT_THRESHOLD (the minimum
// leftover worth carving off as its own free block on allocation).
type Config struct {
	// FLMax bounds the largest single allocation/pool size at 2^(FLMax-1)
	// bytes. Zero selects the default of 39 (256GB).
	FLMax int

	// SplitThreshold is the minimum remainder, in bytes, worth splitting
	// off as a new free block during allocation. Zero selects
	// BLOCK_SIZE_MIN.
	SplitThreshold uintptr
}

func (c Config) withDefaults() Config {
	if c.FLMax == 0 {
		c.FLMax = defaultFLMax
	}
	if c.SplitThreshold == 0 {
		c.SplitThreshold = defaultSplitThreshold
	}
	return c
}

func (c Config) valid() bool {
	return c.FLMax >= minFLMax && c.FLMax <= maxFLMax
}

func (c Config) flCount() int {
	return c.FLMax - flShift + 1
}

// maxPoolSize is the largest size a block or pool may declare under this
// configuration, 2^(FLMax-1).
func (c Config) maxPoolSize() uintptr {
	return uintptr(1) << uint(c.FLMax-1)
}
