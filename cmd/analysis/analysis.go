package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jcalabro/countmin"
)

// hitterKey is the heavy hitter injected into the synthetic stream.
const hitterKey = "hitter"

// cancelCheckInterval is how many increments run between context checks.
const cancelCheckInterval = 1 << 16

// Dimensions is the requested shape of a sketch, before width rounding.
type Dimensions struct {
	Width uint64
	Depth uint64
}

// DimensionsFor returns the shape derived from an error bound and failure
// probability.
func DimensionsFor(epsilon, delta float64) Dimensions {
	width, depth := countmin.OptimalParams(epsilon, delta)
	return Dimensions{Width: width, Depth: depth}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Depth)
}

// Report summarizes the accuracy of one sketch against exact counts.
type Report struct {
	Width            uint64
	Depth            uint64
	Items            int
	Distinct         int
	AvgRelativeError float64
	MaxAbsoluteError uint64
	HitterTrue       uint64
	HitterEstimate   uint64
	ErrorBound       float64
	OverBound        int // Keys whose error exceeds ErrorBound
	Epsilon          float64
	Delta            float64
	SizeBytes        uint64
	Elapsed          time.Duration
}

// OverBoundRatio returns the fraction of keys whose error exceeds the bound.
func (r Report) OverBoundRatio() float64 {
	if r.Distinct == 0 {
		return 0
	}
	return float64(r.OverBound) / float64(r.Distinct)
}

// Throughput returns the increments per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Items) / r.Elapsed.Seconds()
}

// streamKey returns the i-th key of the synthetic stream: the heavy hitter
// every hitterEvery items, otherwise a unique key.
func streamKey(buf []byte, i, hitterEvery int) []byte {
	if i%hitterEvery == 0 {
		return append(buf[:0], hitterKey...)
	}
	buf = append(buf[:0], "i_"...)
	return strconv.AppendInt(buf, int64(i), 10)
}

// Analyze feeds a synthetic stream of items keys into a sketch of shape d and
// compares every estimate against the exact count.
func Analyze(ctx context.Context, d Dimensions, seeds countmin.Seeds, items, hitterEvery int) (Report, error) {
	s := countmin.NewWithSeeds(d.Width, d.Depth, seeds)
	truth := make(map[string]uint64)

	var buf []byte
	start := time.Now()
	for i := range items {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Report{}, fmt.Errorf("analysis of %s interrupted: %w", d, err)
			}
		}
		buf = streamKey(buf, i, hitterEvery)
		s.Add(buf)
		truth[string(buf)]++
	}
	elapsed := time.Since(start)

	r := Report{
		Width:      s.Width(),
		Depth:      s.Depth(),
		Items:      items,
		Distinct:   len(truth),
		ErrorBound: s.ErrorBound(),
		Epsilon:    s.Epsilon(),
		Delta:      s.Delta(),
		SizeBytes:  s.SizeBytes(),
		Elapsed:    elapsed,
	}

	var relErr float64
	for key, actual := range truth {
		est := s.EstimateString(key)
		if est < actual {
			return Report{}, fmt.Errorf("estimate %d below true count %d for %q", est, actual, key)
		}

		diff := est - actual
		relErr += float64(diff) / float64(actual)
		r.MaxAbsoluteError = max(r.MaxAbsoluteError, diff)
		if float64(diff) > r.ErrorBound {
			r.OverBound++
		}
	}
	if r.Distinct > 0 {
		r.AvgRelativeError = relErr / float64(r.Distinct)
	}

	r.HitterTrue = truth[hitterKey]
	r.HitterEstimate = s.EstimateString(hitterKey)

	return r, nil
}
