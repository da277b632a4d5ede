package arena

// ThreadHint supplies a per-caller value the facade hashes to pick a home
// arena, per §4.9/§6. Go exposes no native OS thread id to user code
// (goroutines aren't bound 1:1 to OS threads), so there is no universal
// default analogous to gettid(2); backing.GoroutineHint is this module's
// best-effort stand-in, and hosted callers with a real thread id (or an
// embedded target with one) are expected to supply their own.
type ThreadHint interface {
	Hint() uintptr
}

// mix is §4.9's avalanche mixer, applied as the single round it specifies:
// h ^= h>>16; h *= 0x45d9f3b; h ^= h>>16. One round is enough to spread a
// narrow-range hint (like a small goroutine-local address) across the full
// width before reducing it mod arenaCount.
func mix(h uintptr) uintptr {
	h ^= h >> 16
	h *= 0x45d9f3b
	h ^= h >> 16
	return h
}

// homeIndex maps a thread hint to an arena index in [0, count).
func homeIndex(hint uintptr, count int) int {
	return int(mix(hint) % uintptr(count))
}
