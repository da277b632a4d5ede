package backing

import (
	"unsafe"

	"github.com/sysprog21/tlsf-go/arena"
)

// GoroutineHint is the default arena.ThreadHint: it returns the address of
// a stack-local variable captured at Hint() call time, which the arena
// facade then runs through its mixer. Go gives user code no
// stable goroutine id, so the address of a fresh local — which necessarily
// lives on (or is promoted from) the calling goroutine's own stack — is used
// as a cheap, good-enough-for-load-spreading stand-in. It is not a stable
// per-goroutine identity: two calls from the same goroutine can land on
// different arenas, and that's fine, since the facade only uses the hint to
// pick a starting point before trying every arena.
type GoroutineHint struct{}

var _ arena.ThreadHint = GoroutineHint{}

// Hint returns the address of a stack-local byte, reinterpreted as a
// uintptr. The compiler may keep it in a register rather than spilling it
// to the stack, but taking its address forces a real, distinct location for
// each call frame.
func (GoroutineHint) Hint() uintptr {
	var local byte
	return uintptr(unsafe.Pointer(&local))
}
