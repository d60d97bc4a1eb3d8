// Package projector computes scheduled rank dates and early-rank
// probabilities for qualified beatmap sets, per mode, subject to the
// platform's daily and per-run caps.
package projector

import (
	"time"

	"rankproj/internal/beatmap"
	"rankproj/internal/probability"
)

// Tunables are the scheduling constants from §3/§6 the projector needs.
type Tunables struct {
	RankInterval time.Duration // e.g. 20 * time.Minute
	RankPerRun   int           // maps ranked per batch tick, per mode
	RankPerDay   int           // daily cap per mode
	Split        float64       // probability threshold for the cross-mode bucket key
	Delay        probability.Tunables
}

func ptrFloat(v float64) *float64 { return &v }

// AdjustRankDates projects rankDate/rankDateEarly/probability for one
// mode's qualified queue. ranked must be sorted ascending by RankDate,
// qualified ascending by QueueDate. start lets a caller resume from a
// partially-projected queue (0 projects the whole qualified slice).
func AdjustRankDates(qualified, ranked []*beatmap.BeatmapSet, start int, t Tunables) {
	combined := make([]*beatmap.BeatmapSet, 0, len(ranked)+len(qualified))
	combined = append(combined, ranked...)
	combined = append(combined, qualified...)

	for i := len(ranked) + start; i < len(combined); i++ {
		q := combined[i]

		compareDate := compareDateFor(combined, i, len(ranked), t)

		// Step B: early time.
		queueDate := time.Time{}
		if q.QueueDate != nil {
			queueDate = *q.QueueDate
		}
		q.RankDateEarly = laterOf(queueDate, compareDate)

		// Step C: probability.
		finerWindowIncomplete := i < len(ranked)+t.RankPerDay
		if queueDate.After(compareDate) || finerWindowIncomplete {
			p := t.Delay.After(intervalTimeDelta(q.RankDateEarly, t.RankInterval), nil)
			q.Probability = ptrFloat(p)
		} else {
			q.Probability = nil
		}

		// Step D: round up to the next interval boundary.
		q.RankDate = ceilToInterval(q.RankDateEarly, t.RankInterval)

		// Step E: per-run (batch) cap.
		if i-t.RankPerRun >= 0 && !q.Unresolved {
			applyRunCap(combined[:i], q, t)
		}
	}
}

// compareDateFor implements Step A: the daily-cap compare map lookup.
func compareDateFor(combined []*beatmap.BeatmapSet, i, rankedLen int, t Tunables) time.Time {
	count := 0
	var compareMap *beatmap.BeatmapSet
	for j := i - 1; j >= 0; j-- {
		if combined[j].Unresolved {
			continue
		}
		count++
		if count == t.RankPerDay {
			compareMap = combined[j]
			break
		}
	}

	if compareMap == nil || compareMap.RankDate.IsZero() {
		return time.Time{}
	}

	compareDate := compareMap.RankDate.Add(24 * time.Hour)
	if i >= rankedLen+t.RankPerDay {
		compareDate = compareDate.Add(t.RankInterval)
	}
	return compareDate
}

// applyRunCap implements Step E: pulling a set forward to respect the
// per-run release cap, or pushing it to the next interval on overflow.
func applyRunCap(prior []*beatmap.BeatmapSet, q *beatmap.BeatmapSet, t Tunables) {
	filtered := make([]*beatmap.BeatmapSet, 0, len(prior))
	for i := len(prior) - 1; i >= 0; i-- {
		if !prior[i].Unresolved {
			filtered = append(filtered, prior[i])
		}
	}
	if len(filtered) == 0 {
		return
	}

	// E1: back-propagate pull-forward.
	mostRecentFloor := floorToInterval(filtered[0].RankDate, t.RankInterval)
	if filtered[0].QueueDate != nil && q.RankDate.Before(mostRecentFloor) {
		q.RankDate = mostRecentFloor
		q.RankDateEarly = mostRecentFloor
		q.Probability = ptrFloat(0)
		return
	}

	// E2: three-in-a-slot overflow.
	if len(filtered) < t.RankPerRun {
		return
	}
	qEarlyFloor := floorToInterval(q.RankDateEarly, t.RankInterval)
	saturated := true
	for i := 0; i < t.RankPerRun; i++ {
		if floorToInterval(filtered[i].RankDate, t.RankInterval).Before(qEarlyFloor) {
			saturated = false
			break
		}
	}
	if !saturated {
		return
	}

	lastSlotFloor := floorToInterval(filtered[t.RankPerRun-1].RankDate, t.RankInterval)
	allShareSlot := true
	for i := 0; i < t.RankPerRun; i++ {
		if !floorToInterval(filtered[i].RankDate, t.RankInterval).Equal(lastSlotFloor) {
			allShareSlot = false
			break
		}
	}

	if allShareSlot {
		q.RankDate = mostRecentFloor.Add(t.RankInterval)
	} else {
		q.RankDate = mostRecentFloor
	}
	q.RankDateEarly = q.RankDate
	q.Probability = ptrFloat(0)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// floorToInterval rounds t down to the preceding UTC boundary that is a
// multiple of interval. Go's time.Time zero value (year 1) differs from
// the Unix epoch by a whole number of days, so Truncate against a
// minutes-based interval produces the same UTC clock alignment as
// truncating against the epoch would.
func floorToInterval(t time.Time, interval time.Duration) time.Time {
	return t.UTC().Truncate(interval)
}

// ceilToInterval rounds t up to the next UTC interval boundary, or
// returns t unchanged if it already sits exactly on one.
func ceilToInterval(t time.Time, interval time.Duration) time.Time {
	floor := floorToInterval(t, interval)
	if floor.Equal(t.UTC()) {
		return floor
	}
	return floor.Add(interval)
}

// intervalTimeDelta returns the seconds elapsed since the last interval
// boundary at or before d.
func intervalTimeDelta(d time.Time, interval time.Duration) float64 {
	return d.UTC().Sub(floorToInterval(d, interval)).Seconds()
}
