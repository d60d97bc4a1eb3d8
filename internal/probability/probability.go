// Package probability estimates how likely a qualified beatmap set is to
// rank at its early, randomized-delay moment rather than being pushed to
// the next rank-interval boundary.
package probability

import (
	"math"

	"rankproj/internal/distributions"
)

// Tunables controls the randomized per-map delay window the external
// scheduler inserts between ranks. Callers own the lifetime of a Tunables
// value; it holds no state of its own beyond the two bounds.
type Tunables struct {
	DelayMin float64 // seconds
	DelayMax float64 // seconds
}

// After returns the probability that this mode's next map ranks before
// secondsSinceIntervalBoundary seconds past the last rank-interval
// boundary, averaged over the four possible queue positions (1..4) this
// mode's map can occupy among all modes releasing at the same interval.
//
// otherModeCounts holds how many maps each of the (up to three) other
// modes contribute to the same interval; nil is treated as all-zero,
// i.e. "no other mode is known to share this interval yet".
func (t Tunables) After(secondsSinceIntervalBoundary float64, otherModeCounts []int) float64 {
	memo := make(map[int]float64)
	value := func(m int) float64 {
		if v, ok := memo[m]; ok {
			return v
		}
		scaled := (secondsSinceIntervalBoundary - float64(m)*t.DelayMin) / (t.DelayMax - t.DelayMin)
		v := 1 - distributions.UniformSumCDF(m, scaled)
		memo[m] = v
		return v
	}

	total := 0.0
	for pos := 1; pos <= 4; pos++ {
		sums := permSums(pos, otherModeCounts)
		modeSum := 0.0
		for _, s := range sums {
			modeSum += value(pos + s)
		}
		total += modeSum / float64(len(sums))
	}

	result := total / 4
	return math.Floor(result*100000) / 100000
}

// permSums enumerates the distinct sums of (pos-1) selections from other,
// per the position-dependent semantics in the spec:
//
//	pos=1 -> {0} (this mode ranks first; no other mode precedes it)
//	pos=2 -> each other mode's count alone (one other mode precedes it)
//	pos=3 -> sums over ordered pairs of distinct other modes
//	pos=4 -> the total of all other modes
func permSums(pos int, other []int) []int {
	if len(other) == 0 {
		return []int{0}
	}

	switch pos {
	case 1:
		return []int{0}
	case 2:
		sums := make([]int, len(other))
		copy(sums, other)
		return dedupe(sums)
	case 3:
		var sums []int
		for i := range other {
			for j := range other {
				if i == j {
					continue
				}
				sums = append(sums, other[i]+other[j])
			}
		}
		if len(sums) == 0 {
			return []int{0}
		}
		return dedupe(sums)
	case 4:
		total := 0
		for _, c := range other {
			total += c
		}
		return []int{total}
	default:
		return []int{0}
	}
}

func dedupe(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
