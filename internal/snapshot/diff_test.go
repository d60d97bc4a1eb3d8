package snapshot

import (
	"testing"

	"rankproj/internal/beatmap"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int64) *int64     { return &v }

func TestDiff_NoChange(t *testing.T) {
	previous := []Row{{ID: 1, RankDate: 100, Probability: ptrF(0.12345)}}
	current := []Row{{ID: 1, RankDate: 100, Probability: ptrF(0.12345)}}

	if got := Diff(previous, current); len(got) != 0 {
		t.Errorf("expected no diff, got %v", got)
	}
}

func TestDiff_ProbabilityChanged(t *testing.T) {
	previous := []Row{{ID: 1, RankDate: 100, Probability: ptrF(0.12345)}}
	current := []Row{{ID: 1, RankDate: 100, Probability: ptrF(0.12346)}}

	got := Diff(previous, current)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("expected one changed row, got %v", got)
	}
}

func TestDiff_NewRow(t *testing.T) {
	previous := []Row{{ID: 1, RankDate: 100}}
	current := []Row{{ID: 1, RankDate: 100}, {ID: 2, RankDate: 200}}

	got := Diff(previous, current)
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected only the new row, got %v", got)
	}
}

func TestDiff_QueueDateNilness(t *testing.T) {
	previous := []Row{{ID: 1, RankDate: 100, QueueDate: ptrI(50)}}
	current := []Row{{ID: 1, RankDate: 100, QueueDate: nil}}

	got := Diff(previous, current)
	if len(got) != 1 {
		t.Errorf("expected a diff when QueueDate becomes nil (ranked), got %v", got)
	}
}

func TestRowFromBeatmapSet_TruncatesProbability(t *testing.T) {
	p := 0.123456789
	row := RowFromBeatmapSet(&beatmap.BeatmapSet{Schedule: beatmap.Schedule{Probability: &p}})
	if row.Probability == nil || *row.Probability != 0.12345 {
		t.Errorf("RowFromBeatmapSet probability = %v, want 0.12345", row.Probability)
	}
}
