package cycle

import (
	"context"
	"testing"
	"time"

	"rankproj/internal/eventlog"
	"rankproj/internal/osuapi"
	"rankproj/internal/probability"
	"rankproj/internal/projector"
	"rankproj/internal/snapshot"
)

// fakeAPI implements osuapi.Client for tests that only exercise the
// discussions listing and never hit the network.
type fakeAPI struct {
	unresolvedIDs []int64
}

func (f *fakeAPI) FetchBeatmapSet(int64) (*osuapi.BeatmapSetDTO, error)  { return nil, nil }
func (f *fakeAPI) FetchSetEvents(int64) ([]osuapi.EventDTO, error)       { return nil, nil }
func (f *fakeAPI) FetchGlobalEventsPage(int, int) ([]osuapi.EventDTO, error) { return nil, nil }
func (f *fakeAPI) FetchUnresolvedDiscussionSetIDs() ([]int64, error) {
	return f.unresolvedIDs, nil
}

// fakeEventFetcher implements eventlog.EventFetcher with a single qualify
// event per set, so every qualified set in the fixture reduces cleanly.
type fakeEventFetcher struct {
	qualifiedAt map[int64]int64
}

func (f *fakeEventFetcher) FetchSetEvents(beatmapSetID int64) ([]eventlog.MapEvent, error) {
	ts, ok := f.qualifiedAt[beatmapSetID]
	if !ok {
		return nil, nil
	}
	return []eventlog.MapEvent{{ID: beatmapSetID, BeatmapSetID: beatmapSetID, Type: eventlog.Qualify, CreatedAt: ts}}, nil
}

func (f *fakeEventFetcher) FetchGlobalEventsPage(page, limit int) ([]eventlog.MapEvent, int64, error) {
	return nil, 0, nil
}

func testTunables() projector.Tunables {
	return projector.Tunables{
		RankInterval: 20 * time.Minute,
		RankPerRun:   3,
		RankPerDay:   8,
		Split:        0.5,
		Delay:        probability.Tunables{DelayMin: 0, DelayMax: 60},
	}
}

func TestRunner_Run_ProjectsAndWritesQualifiedSets(t *testing.T) {
	db, err := snapshot.Open(":memory:")
	if err != nil {
		t.Fatalf("snapshot.Open returned error: %v", err)
	}
	defer db.Close()

	qualifiedAt := int64(1700000000)
	seedQueueDate := qualifiedAt
	row := snapshot.Row{ID: 1, QueueDate: &seedQueueDate, RankDate: 0, Beatmaps: nil}
	if err := db.WriteAll(0, []snapshot.Row{row}); err != nil {
		t.Fatalf("seed WriteAll returned error: %v", err)
	}

	api := &fakeAPI{}
	fetcher := &fakeEventFetcher{qualifiedAt: map[int64]int64{1: qualifiedAt}}
	store := eventlog.NewStore()
	provider := eventlog.NewProvider(fetcher, store, "", nil)

	runner := NewRunner(db, api, provider, testTunables(), eventlog.Tunables{MinimumDaysForRank: 7, MaximumPenaltyDays: 7}, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rows, err := db.ReadQualified(0)
	if err != nil {
		t.Fatalf("ReadQualified returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 qualified row after cycle, got %d", len(rows))
	}
	wantQueueDate := qualifiedAt + 7*86400
	if rows[0].QueueDate == nil || *rows[0].QueueDate != wantQueueDate {
		t.Errorf("QueueDate = %v, want %d", rows[0].QueueDate, wantQueueDate)
	}
	if rows[0].RankDate == 0 {
		t.Errorf("expected a non-zero projected RankDate")
	}
}

func TestRunner_Run_SkipsUnresolvableEventLog(t *testing.T) {
	db, err := snapshot.Open(":memory:")
	if err != nil {
		t.Fatalf("snapshot.Open returned error: %v", err)
	}
	defer db.Close()

	seedQueueDate := int64(1700000000)
	if err := db.WriteAll(0, []snapshot.Row{{ID: 99, QueueDate: &seedQueueDate, RankDate: 0}}); err != nil {
		t.Fatalf("seed WriteAll returned error: %v", err)
	}

	api := &fakeAPI{}
	fetcher := &fakeEventFetcher{qualifiedAt: map[int64]int64{}} // no qualify event recorded
	store := eventlog.NewStore()
	provider := eventlog.NewProvider(fetcher, store, "", nil)

	runner := NewRunner(db, api, provider, testTunables(), eventlog.Tunables{MinimumDaysForRank: 7, MaximumPenaltyDays: 7}, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v (should skip the inconsistent set, not fail the cycle)", err)
	}

	rows, err := db.ReadQualified(0)
	if err != nil {
		t.Fatalf("ReadQualified returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected the inconsistent set to be dropped, got %d rows", len(rows))
	}
}

func TestRunner_Run_AppliesUnresolvedMarker(t *testing.T) {
	db, err := snapshot.Open(":memory:")
	if err != nil {
		t.Fatalf("snapshot.Open returned error: %v", err)
	}
	defer db.Close()

	qualifiedAt := int64(1700000000)
	seedQueueDate := qualifiedAt
	if err := db.WriteAll(0, []snapshot.Row{{ID: 5, QueueDate: &seedQueueDate, RankDate: 0}}); err != nil {
		t.Fatalf("seed WriteAll returned error: %v", err)
	}

	api := &fakeAPI{unresolvedIDs: []int64{5}}
	fetcher := &fakeEventFetcher{qualifiedAt: map[int64]int64{5: qualifiedAt}}
	store := eventlog.NewStore()
	provider := eventlog.NewProvider(fetcher, store, "", nil)

	runner := NewRunner(db, api, provider, testTunables(), eventlog.Tunables{MinimumDaysForRank: 7, MaximumPenaltyDays: 7}, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rows, err := db.ReadQualified(0)
	if err != nil {
		t.Fatalf("ReadQualified returned error: %v", err)
	}
	if len(rows) != 1 || !rows[0].Unresolved {
		t.Errorf("expected set 5 to be marked unresolved, got %+v", rows)
	}
}
