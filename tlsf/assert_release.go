//go:build !debug

package tlsf

// assertNotFree is a no-op in release builds (ENABLE_ASSERT off); the
// compiler inlines it away entirely.
func assertNotFree(block) {}
