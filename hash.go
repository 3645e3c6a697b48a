package countmin

import (
	"encoding/binary"
	"math/bits"

	"github.com/zeebo/xxh3"
)

// Seeds configures the keyed hash function of a sketch. Sketches that will be
// merged or compared must be built with the same seeds.
type Seeds [4]uint64

// DefaultSeeds are used by [New] and [NewWithEstimates].
var DefaultSeeds = Seeds{2025, 2, 18, 2118}

// Constants of the splitmix64 finalizer, also used to derive the
// double-hashing step.
const (
	golden = 0x9E3779B97F4A7C15
	mixC1  = 0xBF58476D1CE4E5B9
	mixC2  = 0x94D049BB133111EB
)

// mix64 is the splitmix64 finalizer: a bijective avalanche over 64 bits.
func mix64(h uint64) uint64 {
	h += golden
	h = (h ^ (h >> 30)) * mixC1
	h = (h ^ (h >> 27)) * mixC2
	return h ^ (h >> 31)
}

// hashSeed folds the four seed words into the single 64-bit xxh3 seed.
func (s Seeds) hashSeed() uint64 {
	var h uint64
	for i, w := range s {
		h = mix64(h ^ bits.RotateLeft64(w, 16*i))
	}
	return h
}

// hashData computes the seeded xxh3 hash of the given data.
func hashData(data []byte, seed uint64) uint64 {
	return xxh3.HashSeed(data, seed)
}

// hashString computes the seeded xxh3 hash of the given string.
// This avoids the allocation of converting string to []byte.
func hashString(s string, seed uint64) uint64 {
	return xxh3.HashStringSeed(s, seed)
}

// hashUint64 hashes the little-endian encoding of v.
func hashUint64(v uint64, seed uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return xxh3.HashSeed(buf[:], seed)
}

// step derives the odd double-hashing step from the primary hash. Being odd it
// is coprime with any power-of-2 width, so h1 + i*step visits distinct buckets
// until i wraps the width.
func step(h1 uint64) uint64 {
	return mix64(h1) | 1
}

// cellIndex returns the flattened table index for row i.
func cellIndex(h1, h2, i, width, mask uint64) uint64 {
	return i*width + ((h1 + i*h2) & mask)
}
