package projector

import (
	"rankproj/internal/beatmap"
)

// ByMode holds one slice of beatmap sets per game mode, indexed by
// beatmap.Mode.
type ByMode [beatmap.ModeCount][]*beatmap.BeatmapSet

// AdjustAllRankDates is the top-level entry point: it runs AdjustRankDates
// for each of the four modes, then re-estimates probability across modes
// via CalcEarlyProbability.
func AdjustAllRankDates(qualified, ranked ByMode, t Tunables) {
	for m := 0; m < beatmap.ModeCount; m++ {
		AdjustRankDates(qualified[m], ranked[m], 0, t)
	}
	CalcEarlyProbability(qualified, t)
}

// CalcEarlyProbability re-estimates each qualified set's probability by
// accounting for how many other modes' sets are converging on the same
// rank interval. It must run only after every mode has completed
// AdjustRankDates (§5's cross-mode ordering guarantee).
func CalcEarlyProbability(qualified ByMode, t Tunables) {
	type bucketKey struct {
		unixSeconds int64
	}
	buckets := make(map[bucketKey][beatmap.ModeCount]int)

	keyFor := func(set *beatmap.BeatmapSet) bucketKey {
		if set.Probability != nil && *set.Probability > t.Split {
			return bucketKey{floorToInterval(set.RankDateEarly, t.RankInterval).Unix()}
		}
		return bucketKey{set.RankDate.Unix()}
	}

	for m := 0; m < beatmap.ModeCount; m++ {
		for _, set := range qualified[m] {
			k := keyFor(set)
			counts := buckets[k]
			counts[m]++
			buckets[k] = counts
		}
	}

	for m := 0; m < beatmap.ModeCount; m++ {
		for _, set := range qualified[m] {
			if set.Probability == nil {
				continue
			}
			if set.RankDateEarly.Equal(set.RankDate) {
				continue
			}

			k := bucketKey{floorToInterval(set.RankDateEarly, t.RankInterval).Unix()}
			counts := buckets[k]

			var other []int
			for om := 0; om < beatmap.ModeCount; om++ {
				if om == m {
					continue
				}
				other = append(other, counts[om])
			}

			p := t.Delay.After(intervalTimeDelta(set.RankDateEarly, t.RankInterval), other)
			set.Probability = ptrFloat(p)
		}
	}
}
