package countmin

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// ErrIncompatibleDimensions is returned when two sketches with different
// width or depth are merged or compared.
var ErrIncompatibleDimensions = errors.New("countmin: incompatible dimensions")

// Sketch is a non-thread-safe Count-Min sketch.
//
// The table is a flat, cache-line aligned array of depth rows of width
// saturating counters. A single seeded xxh3 hash per item is expanded into
// depth bucket positions by enhanced double hashing.
type Sketch struct {
	raw       []byte   // Raw allocation to keep aligned memory alive for GC
	table     []uint64 // depth rows of width counters, row-major
	width     uint64   // Counters per row, power of 2
	widthMask uint64   // width - 1
	depth     uint64   // Number of rows
	seeds     Seeds    // Keyed hash configuration
	seed      uint64   // xxh3 seed folded from seeds
	count     uint64   // Number of increments absorbed (saturating)
}

// New creates a sketch with explicit dimensions and [DefaultSeeds].
// width is rounded up to the next power of 2. New panics if width or depth
// is zero.
func New(width, depth uint64) *Sketch {
	return NewWithSeeds(width, depth, DefaultSeeds)
}

// NewWithEstimates creates a sketch whose estimates exceed the true count by
// at most epsilon times the total number of increments, with probability at
// least 1 - delta. It panics if epsilon or delta is outside (0, 1).
func NewWithEstimates(epsilon, delta float64) *Sketch {
	width, depth := OptimalParams(epsilon, delta)
	return New(width, depth)
}

// NewWithSeeds creates a sketch with explicit dimensions and hash seeds.
// Sketches built independently with the same dimensions and seeds can be
// merged and compared.
func NewWithSeeds(width, depth uint64, seeds Seeds) *Sketch {
	width = checkDimensions(width, depth)

	raw, table := makeAlignedUint64Slice(int(width * depth))

	return &Sketch{
		raw:       raw,
		table:     table,
		width:     width,
		widthMask: width - 1,
		depth:     depth,
		seeds:     seeds,
		seed:      seeds.hashSeed(),
	}
}

// makeAlignedUint64Slice allocates a cache-line aligned slice of uint64.
// Returns the raw byte slice (to keep alive for GC) and the aligned uint64 slice.
func makeAlignedUint64Slice(n int) ([]byte, []uint64) {
	raw := make([]byte, n*8+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// Add increments the count of data by one.
func (s *Sketch) Add(data []byte) {
	s.AddHash(hashData(data, s.seed))
}

// AddString increments the count of a string without allocating.
func (s *Sketch) AddString(str string) {
	s.AddHash(hashString(str, s.seed))
}

// AddUint64 increments the count of an integer key.
func (s *Sketch) AddUint64(v uint64) {
	s.AddHash(hashUint64(v, s.seed))
}

// AddHash increments the count of an item identified by a caller-computed
// 64-bit hash. The hash must have good avalanche behavior, and the same hash
// function must be used with [Sketch.EstimateHash].
func (s *Sketch) AddHash(h1 uint64) {
	h2 := step(h1)
	for i := range s.depth {
		idx := cellIndex(h1, h2, i, s.width, s.widthMask)
		if s.table[idx] != math.MaxUint64 {
			s.table[idx]++
		}
	}

	if s.count != math.MaxUint64 {
		s.count++
	}
}

// Estimate returns the estimated count of data. The result is never less
// than the number of times data was added.
func (s *Sketch) Estimate(data []byte) uint64 {
	return s.EstimateHash(hashData(data, s.seed))
}

// EstimateString returns the estimated count of a string without allocating.
func (s *Sketch) EstimateString(str string) uint64 {
	return s.EstimateHash(hashString(str, s.seed))
}

// EstimateUint64 returns the estimated count of an integer key.
func (s *Sketch) EstimateUint64(v uint64) uint64 {
	return s.EstimateHash(hashUint64(v, s.seed))
}

// EstimateHash returns the estimated count of an item identified by a
// caller-computed 64-bit hash.
func (s *Sketch) EstimateHash(h1 uint64) uint64 {
	if s.depth == 0 {
		return 0
	}

	h2 := step(h1)
	minVal := uint64(math.MaxUint64)
	for i := range s.depth {
		minVal = min(minVal, s.table[cellIndex(h1, h2, i, s.width, s.widthMask)])
	}

	return minVal
}

// Merge adds the counters of other into s, so that s summarizes both
// streams. Both sketches must have the same dimensions and should share
// seeds; on mismatched dimensions neither sketch is modified.
func (s *Sketch) Merge(other *Sketch) error {
	if err := s.compatible(other); err != nil {
		return err
	}

	for i, v := range other.table {
		s.table[i] = saturatingAdd(s.table[i], v)
	}
	s.count = saturatingAdd(s.count, other.count)

	return nil
}

// Clear resets every counter to zero, keeping dimensions and seeds.
func (s *Sketch) Clear() {
	clear(s.table)
	s.count = 0
}

// L1Distance estimates the L1 (Manhattan) distance between the frequency
// distributions summarized by s and other. Each row yields an upper bound
// inflated by collisions, so the smallest row sum is returned.
func (s *Sketch) L1Distance(other *Sketch) (uint64, error) {
	if err := s.compatible(other); err != nil {
		return 0, err
	}

	best := uint64(math.MaxUint64)
	for i := range s.depth {
		a, b := s.row(i), other.row(i)
		var sum uint64
		for j, x := range a {
			y := b[j]
			if x > y {
				sum = saturatingAdd(sum, x-y)
			} else {
				sum = saturatingAdd(sum, y-x)
			}
		}
		best = min(best, sum)
	}

	return best, nil
}

// CosineSimilarity estimates the cosine similarity between the frequency
// vectors summarized by s and other, in [0, 1]. Collisions dilute the
// similarity of a row, so the largest row similarity is returned. A row in
// which either sketch is all zero has similarity 0.
func (s *Sketch) CosineSimilarity(other *Sketch) (float64, error) {
	if err := s.compatible(other); err != nil {
		return 0, err
	}

	var best float64
	for i := range s.depth {
		best = max(best, rowCosine(s.row(i), other.row(i)))
	}

	return best, nil
}

// rowCosine computes the cosine similarity of two equal-length rows.
func rowCosine(a, b []uint64) float64 {
	var dot, normA, normB float64
	for j, x := range a {
		fx, fy := float64(x), float64(b[j])
		dot += fx * fy
		normA += fx * fx
		normB += fy * fy
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	// Rounding can push identical rows slightly above 1
	return min(dot/(math.Sqrt(normA)*math.Sqrt(normB)), 1)
}

// compatible reports whether other has the same dimensions as s.
func (s *Sketch) compatible(other *Sketch) error {
	if s.width != other.width || s.depth != other.depth {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrIncompatibleDimensions,
			s.width, s.depth, other.width, other.depth)
	}
	return nil
}

// row returns the counters of row i.
func (s *Sketch) row(i uint64) []uint64 {
	base := i * s.width
	return s.table[base : base+s.width : base+s.width]
}

// saturatingAdd returns a + b, clamped to math.MaxUint64.
func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// Width returns the number of counters per row (a power of 2).
func (s *Sketch) Width() uint64 {
	return s.width
}

// Depth returns the number of rows.
func (s *Sketch) Depth() uint64 {
	return s.depth
}

// Seeds returns the hash seeds the sketch was built with.
func (s *Sketch) Seeds() Seeds {
	return s.seeds
}

// Count returns the total number of increments absorbed, including those
// merged from other sketches.
func (s *Sketch) Count() uint64 {
	return s.count
}

// Epsilon returns the relative error bound e / width of the sketch.
func (s *Sketch) Epsilon() float64 {
	return EpsilonFor(s.width)
}

// Delta returns the probability e^-depth that an estimate exceeds
// [Sketch.ErrorBound].
func (s *Sketch) Delta() float64 {
	return DeltaFor(s.depth)
}

// ErrorBound returns the additive error epsilon * Count that an estimate
// stays within with probability 1 - Delta.
func (s *Sketch) ErrorBound() float64 {
	return s.Epsilon() * float64(s.count)
}

// SizeBytes returns the memory used by the counter table in bytes.
func (s *Sketch) SizeBytes() uint64 {
	return s.width * s.depth * counterBytes
}
