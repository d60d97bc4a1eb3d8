package snapshot

import (
	"testing"
	"time"

	"rankproj/internal/beatmap"
)

func TestRowFromBeatmapSet_RoundTrip(t *testing.T) {
	queueDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rankDate := time.Date(2026, 1, 8, 0, 20, 0, 0, time.UTC)
	rankDateEarly := time.Date(2026, 1, 7, 23, 58, 12, 0, time.UTC)
	prob := 0.5
	set := &beatmap.BeatmapSet{
		ID:     1,
		Artist: "a",
		Title:  "b",
		Schedule: beatmap.Schedule{
			QueueDate:     &queueDate,
			RankDate:      rankDate,
			RankDateEarly: rankDateEarly,
			Probability:   &prob,
		},
	}

	row := RowFromBeatmapSet(set)
	back := row.ToBeatmapSet()

	if !back.QueueDate.Equal(*set.QueueDate) {
		t.Errorf("QueueDate round-trip: got %v, want %v", back.QueueDate, set.QueueDate)
	}
	if !back.RankDate.Equal(set.RankDate) {
		t.Errorf("RankDate round-trip: got %v, want %v", back.RankDate, set.RankDate)
	}
	if !back.RankDateEarly.Equal(set.RankDateEarly) {
		t.Errorf("RankDateEarly round-trip: got %v, want %v", back.RankDateEarly, set.RankDateEarly)
	}
	if back.Probability == nil || *back.Probability != prob {
		t.Errorf("Probability round-trip: got %v, want %v", back.Probability, prob)
	}
}

func TestRowFromBeatmapSet_RankDateEarlyOmittedWhenEqual(t *testing.T) {
	rankDate := time.Date(2026, 1, 1, 0, 20, 0, 0, time.UTC)
	set := &beatmap.BeatmapSet{
		ID: 1,
		Schedule: beatmap.Schedule{
			RankDate:      rankDate,
			RankDateEarly: rankDate,
		},
	}

	row := RowFromBeatmapSet(set)
	if row.RankDateEarly != nil {
		t.Errorf("expected nil RankDateEarly when equal to RankDate, got %v", *row.RankDateEarly)
	}

	back := row.ToBeatmapSet()
	if !back.RankDateEarly.Equal(rankDate) {
		t.Errorf("expected ToBeatmapSet to default RankDateEarly to RankDate, got %v", back.RankDateEarly)
	}
}
