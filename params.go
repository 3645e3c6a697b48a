package countmin

import (
	"fmt"
	"math"
)

const (
	// MaxWidth is the largest accepted width (after rounding up to a power of 2).
	MaxWidth = uint64(1) << 48
	// counterBytes is the size of a single counter in the table.
	counterBytes = 8
)

// OptimalParams calculates the sketch dimensions that give an additive error of
// at most epsilon * N (N being the total number of increments) with probability
// at least 1 - delta.
//
// Formulae: width = ceil(e / epsilon), depth = ceil(ln(1 / delta)). The returned
// width is already rounded up to the next power of 2.
//
// OptimalParams panics if epsilon or delta is outside the open interval (0, 1).
func OptimalParams(epsilon, delta float64) (width, depth uint64) {
	// The negated comparisons also reject NaN
	if !(epsilon > 0 && epsilon < 1) {
		panic(fmt.Sprintf("countmin: epsilon must be in (0, 1), got %v", epsilon))
	}
	if !(delta > 0 && delta < 1) {
		panic(fmt.Sprintf("countmin: delta must be in (0, 1), got %v", delta))
	}

	w := math.Ceil(math.E / epsilon)
	if w > float64(MaxWidth) {
		panic(fmt.Sprintf("countmin: epsilon %v requires a width above %d", epsilon, MaxWidth))
	}

	width = nextPowerOf2(uint64(w))
	depth = max(uint64(math.Ceil(math.Log(1/delta))), 1)

	return width, depth
}

// EpsilonFor returns the relative error bound e / width provided by a sketch
// of the given width.
func EpsilonFor(width uint64) float64 {
	if width == 0 {
		return math.Inf(1)
	}
	return math.E / float64(width)
}

// DeltaFor returns the failure probability e^-depth provided by a sketch of
// the given depth.
func DeltaFor(depth uint64) float64 {
	return math.Exp(-float64(depth))
}

// checkDimensions validates explicit dimensions and returns the effective width.
func checkDimensions(width, depth uint64) uint64 {
	if width == 0 {
		panic("countmin: width must be positive")
	}
	if depth == 0 {
		panic("countmin: depth must be positive")
	}
	if width > MaxWidth {
		panic(fmt.Sprintf("countmin: width %d exceeds maximum %d", width, MaxWidth))
	}

	w := nextPowerOf2(width)

	// Table size in bytes must fit in an int for allocation
	if depth > uint64(math.MaxInt)/counterBytes/w {
		panic(fmt.Sprintf("countmin: table of %d x %d counters is too large", w, depth))
	}

	return w
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
