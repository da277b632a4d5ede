// Package bitops wraps the math/bits intrinsics the size-class mapping and
// free-list bitmap index need, in the same direct style buddy.go and
// bitmap.go use them.
package bitops

import "math/bits"

// Log2Floor returns floor(log2(x)), or -1 for x == 0.
func Log2Floor(x uint) int {
	if x == 0 {
		return -1
	}
	return bits.Len(x) - 1
}

// Ctz returns the number of trailing zero bits in x, or the bit width of x
// when x == 0.
func Ctz(x uint) int {
	return bits.TrailingZeros(x)
}

// Ctz32 is Ctz for a 32-bit bitmap word.
func Ctz32(x uint32) int {
	return bits.TrailingZeros32(x)
}
