//go:build arm64

package cacheline

// Size is 128 rather than the architectural 64 bytes: Apple Silicon's L2
// prefetcher works in 128-byte pairs, and padding to 64 still lets two
// padded records share an L2 prefetch unit.
const Size = 128
