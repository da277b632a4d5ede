//go:build debug

package tlsf

// assertNotFree implements §7's ENABLE_ASSERT knob: in a debug build, it
// panics if b's FREE_BIT is already set, catching the common double-free
// the header has just enough room to detect. A release build compiles this
// to nothing, so the hot path never pays for it.
func assertNotFree(b block) {
	if blkIsFree(b) {
		panic("tlsf: release of already-free block")
	}
}
