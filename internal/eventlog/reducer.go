package eventlog

import (
	"errors"
	"sort"
)

// ErrEventLogInconsistent is returned by Reduce when event replay ends
// with no open queue entry (queuedAt stays nil) for a set the caller
// asserts is currently qualified. The caller should log and skip the
// set rather than abort the whole refresh cycle (§7).
var ErrEventLogInconsistent = errors.New("eventlog: replay produced no queue date for a qualified set")

const daySeconds = 86400

// Tunables are the constants the reducer needs from §3/§6 of the spec.
type Tunables struct {
	MinimumDaysForRank int
	MaximumPenaltyDays int
}

// Reduce replays a beatmap set's full moderation history in chronological
// order and returns the effective queue-entry instant (unix seconds,
// already advanced by MinimumDaysForRank days), or nil if the set is not
// currently queued (its most recent lifecycle event was a rank, or it has
// never been qualified).
//
// currentBeatmapIDs is the set's current beatmap ids, after any
// revisions since the last disqualify; it is compared against the ids
// recorded on that disqualify to detect a "substantive" mapset change.
func Reduce(events []MapEvent, currentBeatmapIDs []int64, qualifiedNow bool, t Tunables) (*int64, error) {
	sorted := make([]MapEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	r := &reducerState{currentBeatmapIDs: currentBeatmapIDs}
	for _, e := range sorted {
		r.apply(e, t)
	}

	if r.queuedAt == nil {
		if qualifiedNow {
			return nil, ErrEventLogInconsistent
		}
		return nil, nil
	}

	queueDate := *r.queuedAt + int64(t.MinimumDaysForRank)*daySeconds
	return &queueDate, nil
}

type reducerState struct {
	queuedAt              *int64
	previousQueueDuration int64
	lastDisqualify        *MapEvent
	disqualifyNominators  []int64
	nominators            []int64
	currentBeatmapIDs     []int64
}

func (r *reducerState) apply(e MapEvent, t Tunables) {
	switch e.Type {
	case Qualify:
		r.applyQualify(e, t)
	case Disqualify:
		dq := e
		r.lastDisqualify = &dq
		if r.queuedAt != nil {
			r.previousQueueDuration = e.CreatedAt - *r.queuedAt
		}
		r.disqualifyNominators = append([]int64(nil), r.nominators...)
		r.nominators = nil
	case Rank:
		r.previousQueueDuration = 0
		r.queuedAt = nil
	case Nominate:
		r.nominators = append(r.nominators, e.UserID)
	case NominationReset:
		r.nominators = nil
	}
}

func (r *reducerState) applyQualify(e MapEvent, t Tunables) {
	ts := e.CreatedAt

	if r.lastDisqualify == nil {
		r.queuedAt = &ts
		return
	}

	beatmapIDsChanged := !containsAll(r.lastDisqualify.BeatmapIDs, r.currentBeatmapIDs)
	if beatmapIDsChanged {
		queuedAt := ts
		r.queuedAt = &queuedAt
		return
	}

	if !sameNominators(r.nominators, r.disqualifyNominators) {
		r.previousQueueDuration = 0
	}

	credit := r.previousQueueDuration
	creditCap := int64(t.MinimumDaysForRank-1) * daySeconds
	if credit > creditCap {
		credit = creditCap
	}

	queuedAt := ts - credit

	penaltyDays := (ts - r.lastDisqualify.CreatedAt) / (7 * daySeconds)
	if int(penaltyDays) > t.MaximumPenaltyDays {
		penaltyDays = int64(t.MaximumPenaltyDays)
	}
	queuedAt += penaltyDays * daySeconds

	r.queuedAt = &queuedAt
}

func sameNominators(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int64]int, len(b))
	for _, id := range b {
		set[id]++
	}
	for _, id := range a {
		set[id]--
		if set[id] < 0 {
			return false
		}
	}
	return true
}

func containsAll(superset, subset []int64) bool {
	set := make(map[int64]bool, len(superset))
	for _, id := range superset {
		set[id] = true
	}
	for _, id := range subset {
		if !set[id] {
			return false
		}
	}
	return true
}
