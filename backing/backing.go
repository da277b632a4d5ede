// Package backing provides concrete, swappable default implementations of
// two of the §6 callbacks a hosted (non-embedded) Go program wants out of
// the box: a growable-pool BackingStore and a ThreadHint. The default
// per-arena Locker is not here; it lives in arena itself. tlsf and arena
// depend only on the corresponding interfaces; nothing in those packages
// imports backing.
package backing

import (
	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"
)

// MCacheBackingStore is the default tlsf.BackingStore: it hands a growable
// pool memory obtained from bytedance/gopkg's size-classed sync.Pool cache
// (mcache) instead of a fresh make([]byte, n), and returns the previous
// buffer to that cache inside Resize, as soon as its content has been
// copied into the larger one. The
// teacher's own bufiox/gridbuf packages use mcache/dirtmake for exactly
// this "give me differently-sized scratch memory without the GC pressure of
// make" role.
type MCacheBackingStore struct{}

// Resize implements tlsf.BackingStore. A request for the size already
// satisfied by current is a no-op per §6's idempotence requirement. A
// growing request allocates a new, larger buffer via mcache.Malloc
// (unzeroed — dirtmake.Bytes for the very first call, since there's no
// prior content to avoid clobbering), copies current's bytes into its
// prefix, and returns the old buffer to the cache.
func (MCacheBackingStore) Resize(current []byte, reqBytes int) []byte {
	if reqBytes <= len(current) {
		return current
	}
	var next []byte
	if len(current) == 0 {
		next = dirtmake.Bytes(reqBytes, reqBytes)
	} else {
		next = mcache.Malloc(reqBytes)
	}
	copy(next, current)
	if len(current) > 0 {
		mcache.Free(current)
	}
	return next
}
