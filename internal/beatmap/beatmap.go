// Package beatmap holds the domain types shared by the event-log reducer
// and the rank-date projector: beatmaps, beatmap sets, and the mutable
// scheduling attributes the projector assigns to each qualified set.
package beatmap

import (
	"sort"
	"time"
)

// Mode is one of the four gameplay variants a beatmap can be written for.
type Mode int

const (
	ModeOsu Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

// ModeCount is the number of distinct game modes the projector tracks.
const ModeCount = 4

// Beatmap is a single difficulty within a BeatmapSet.
type Beatmap struct {
	ID            int64
	Version       string // difficulty name
	SpinnerCount  int
	StarRating    float64
	LengthSeconds int
	Mode          Mode
}

// Schedule holds the mutable, nullable scheduling attributes the
// rank-date projector assigns to a BeatmapSet. It is always present on a
// BeatmapSet (never a separate pointer). QueueDate and Probability are
// pointers and nil when absent. RankDate and RankDateEarly are plain
// time.Time values: a zero time.Time (year 1, not the Unix epoch) is how
// an unassigned rank date is represented, and the projector's daily-cap
// lookup treats a zero RankDate as "no rank date".
type Schedule struct {
	QueueDate     *time.Time // when the 7-day clock effectively started; nil once ranked
	RankDate      time.Time  // projected rank time, rounded up to a RANK_INTERVAL boundary
	RankDateEarly time.Time  // projected earliest rank moment before rounding; <= RankDate
	Probability   *float64   // nil iff RankDateEarly == RankDate or the coarse compare path was used
	Unresolved    bool       // true disables the set from counting toward queue caps
}

// BeatmapSet is a moderation unit: one or more Beatmaps sharing a
// submission, plus the scheduling state the projector mutates in place.
type BeatmapSet struct {
	ID       int64
	Artist   string
	Title    string
	Mapper   string
	MapperID int64
	Beatmaps []Beatmap // sorted by StarRating ascending

	Schedule
}

// Mode is the minimum mode across the set's beatmaps; a set lives in
// exactly one mode queue, the lowest one any of its difficulties target.
func (s *BeatmapSet) Mode() Mode {
	if len(s.Beatmaps) == 0 {
		return ModeOsu
	}
	m := s.Beatmaps[0].Mode
	for _, b := range s.Beatmaps[1:] {
		if b.Mode < m {
			m = b.Mode
		}
	}
	return m
}

// SortBeatmapsByStarRating orders a set's beatmaps ascending by star
// rating, the order the projector and upstream API both expect.
func SortBeatmapsByStarRating(beatmaps []Beatmap) {
	sort.SliceStable(beatmaps, func(i, j int) bool {
		return beatmaps[i].StarRating < beatmaps[j].StarRating
	})
}

// ByQueueDate sorts qualified sets ascending by QueueDate, the order the
// projector requires for §4.4's cap logic to see prior entries already
// assigned. Sets with a nil QueueDate sort first (they have no queue
// date yet and should never reach this sort in practice).
type ByQueueDate []*BeatmapSet

func (b ByQueueDate) Len() int      { return len(b) }
func (b ByQueueDate) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b ByQueueDate) Less(i, j int) bool {
	qi, qj := b[i].QueueDate, b[j].QueueDate
	if qi == nil {
		return true
	}
	if qj == nil {
		return false
	}
	return qi.Before(*qj)
}

// ByRankDate sorts ranked sets ascending by RankDate, the order the
// projector requires for the recent-ranked tail it treats as context.
type ByRankDate []*BeatmapSet

func (b ByRankDate) Len() int      { return len(b) }
func (b ByRankDate) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b ByRankDate) Less(i, j int) bool {
	return b[i].RankDate.Before(b[j].RankDate)
}
