// Package countmin provides a high-performance Count-Min sketch for Go.
//
// A Count-Min sketch is a fixed-size probabilistic data structure that
// estimates how many times each item of a stream has been seen. Estimates
// are never lower than the true count – collisions with other items can only
// inflate a counter, never deflate it. With probability 1-δ the
// overestimate is at most ε times the total number of increments.
//
// # Architecture
//
// The sketch is a single flat table of depth × width uint64 counters laid out
// row-major and aligned to a cache line. The width is always a power of 2,
// so bucket selection is a mask rather than a modulo.
//
// Enhanced double hashing: instead of computing depth independent hash
// functions, the sketch computes a single seeded xxh3 hash h1 and derives an
// odd step h2 from it with the splitmix64 finalizer. Row i uses bucket
// (h1 + i*h2) & (width-1). Because h2 is odd it is coprime with the width,
// which keeps the probe sequence free of short cycles. See "Less Hashing,
// Same Performance" for why this preserves the sketch's guarantees.
//
// Counters saturate at [math.MaxUint64] instead of wrapping.
//
// # Choosing Parameters
//
// Use [NewWithEstimates] with the error bound and failure probability you
// need:
//
//	// Estimates within 0.1% of the stream length, 99% of the time
//	s := countmin.NewWithEstimates(0.001, 0.01)
//
// The dimensions are width = ceil(e/ε) rounded up to a power of 2 and
// depth = ceil(ln(1/δ)). [New] and [NewWithSeeds] take explicit dimensions.
//
// # Statistics
//
// Beyond point estimates, two sketches with the same dimensions and seeds
// can be combined:
//
//   - [Sketch.Merge] adds another sketch's counters, as if both streams had
//     been fed to one sketch.
//   - [Sketch.L1Distance] estimates the L1 distance between the two
//     frequency distributions (minimum over rows, an upper bound).
//   - [Sketch.CosineSimilarity] estimates their cosine similarity
//     (maximum over rows).
//
// Mismatched dimensions return [ErrIncompatibleDimensions] and leave both
// sketches untouched. Sketches built with different [Seeds] have unrelated
// layouts: merging or comparing them does not fail but yields meaningless
// results.
//
// # Memory Usage
//
//	memory_bytes = width * depth * 8
//
// Example: ε = 0.001, δ = 0.01 gives 4096 × 5 counters ≈ 160 KB.
//
// # Thread Safety
//
// [Sketch] is NOT thread-safe. At most one goroutine may mutate a sketch
// (Add, Merge, Clear) at a time, and reads must not overlap with writes.
// Guard the sketch with a [sync.Mutex], or shard keys across several
// sketches each owned by one goroutine and [Sketch.Merge] them afterwards.
//
// # Performance Tips
//
//   - Use the string methods ([Sketch.AddString], [Sketch.EstimateString])
//     to avoid allocating when you have string keys
//   - Use [Sketch.AddHash] and [Sketch.EstimateHash] when items already
//     carry a good 64-bit hash
//   - Clear and reuse sketches rather than allocating new ones
//
// # References
//
//   - Count-Min sketch: http://dimacs.rutgers.edu/~graham/pubs/papers/cm-full.pdf
//   - Less Hashing, Same Performance: https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf
package countmin
