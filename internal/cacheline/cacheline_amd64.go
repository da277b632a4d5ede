//go:build amd64

package cacheline

// Size is the L1 cache line width on x86-64: 64 bytes on every mainstream
// Intel and AMD part. Arena records are padded to this so that two arenas'
// locks never share a line.
const Size = 64
