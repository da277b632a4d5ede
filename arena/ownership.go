package arena

import (
	"sort"
	"unsafe"
)

// ownerOf returns the index of the arena whose pool span contains ptr, or
// -1 if no arena owns it. Each arena's pool is a fixed, non-relocating
// static tlsf.Pool (see New), so the bases recorded at construction
// time stay valid and sorted for the lifetime of the Arenas handle — no
// re-sort is ever needed, satisfying §4.9's Open Question about ownership
// lookup without degrading to a linear scan as arena count grows.
func (a *Arenas) ownerOf(ptr unsafe.Pointer) int {
	addr := uintptr(ptr)
	n := len(a.bases)
	// Find the rightmost arena whose base is <= addr.
	i := sort.Search(n, func(i int) bool { return a.bases[i] > addr }) - 1
	if i < 0 {
		return -1
	}
	idx := a.order[i]
	if a.records[idx].pool.Contains(ptr) {
		return idx
	}
	return -1
}
