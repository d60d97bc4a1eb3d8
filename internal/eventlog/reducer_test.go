package eventlog

import "testing"

func tunables() Tunables {
	return Tunables{MinimumDaysForRank: 7, MaximumPenaltyDays: 28}
}

// S1: single map, no prior disqualify.
func TestReduce_NoPriorDisqualify(t *testing.T) {
	const t0 = 1_700_000_000
	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: t0},
	}

	got, err := Reduce(events, []int64{1, 2}, true, tunables())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	want := int64(t0 + 7*daySeconds)
	if got == nil || *got != want {
		t.Errorf("queueDate = %v, want %v", got, want)
	}
}

// S2: requalify with same nominators and same beatmap ids, 10 days between
// dq and requalify; prior queue lasted 3 days before dq.
func TestReduce_RequalifySameNominatorsSameBeatmaps(t *testing.T) {
	const qualifyAt = 1_700_000_000
	const dqAt = qualifyAt + 3*daySeconds
	const requalifyAt = dqAt + 10*daySeconds

	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: qualifyAt},
		{ID: 2, Type: Nominate, CreatedAt: qualifyAt - 100, UserID: 42},
		{ID: 3, Type: Disqualify, CreatedAt: dqAt, BeatmapIDs: []int64{1, 2}},
		{ID: 4, Type: Nominate, CreatedAt: dqAt + 1, UserID: 42},
		{ID: 5, Type: Qualify, CreatedAt: requalifyAt, BeatmapIDs: []int64{1, 2}},
	}

	got, err := Reduce(events, []int64{1, 2}, true, tunables())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	wantQueuedAt := int64(requalifyAt - 3*daySeconds + 1*daySeconds)
	want := wantQueuedAt + 7*daySeconds
	if got == nil || *got != want {
		t.Errorf("queueDate = %v, want %v (requalifyTime + 5*DAY)", got, want)
	}
}

// S3: requalify with different nominators; same timings as S2.
func TestReduce_RequalifyDifferentNominators(t *testing.T) {
	const qualifyAt = 1_700_000_000
	const dqAt = qualifyAt + 3*daySeconds
	const requalifyAt = dqAt + 10*daySeconds

	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: qualifyAt},
		{ID: 2, Type: Nominate, CreatedAt: qualifyAt - 100, UserID: 42},
		{ID: 3, Type: Disqualify, CreatedAt: dqAt, BeatmapIDs: []int64{1, 2}},
		{ID: 4, Type: Nominate, CreatedAt: dqAt + 1, UserID: 99}, // different nominator
		{ID: 5, Type: Qualify, CreatedAt: requalifyAt, BeatmapIDs: []int64{1, 2}},
	}

	got, err := Reduce(events, []int64{1, 2}, true, tunables())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	want := int64(requalifyAt + 7*daySeconds + 1*daySeconds)
	if got == nil || *got != want {
		t.Errorf("queueDate = %v, want %v", got, want)
	}
}

// S4: requalify after adding a new beatmap; credit discarded regardless of
// nominators, and no penalty branch runs.
func TestReduce_RequalifyNewBeatmapAdded(t *testing.T) {
	const qualifyAt = 1_700_000_000
	const dqAt = qualifyAt + 3*daySeconds
	const requalifyAt = dqAt + 10*daySeconds

	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: qualifyAt},
		{ID: 2, Type: Nominate, CreatedAt: qualifyAt - 100, UserID: 42},
		{ID: 3, Type: Disqualify, CreatedAt: dqAt, BeatmapIDs: []int64{1, 2}},
		{ID: 4, Type: Nominate, CreatedAt: dqAt + 1, UserID: 42},
		{ID: 5, Type: Qualify, CreatedAt: requalifyAt, BeatmapIDs: []int64{1, 2, 3}},
	}

	// Current beatmap ids include a new id (3) that wasn't present at dq time.
	got, err := Reduce(events, []int64{1, 2, 3}, true, tunables())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	want := int64(requalifyAt + 7*daySeconds)
	if got == nil || *got != want {
		t.Errorf("queueDate = %v, want %v", got, want)
	}
}

func TestReduce_RankedClearsQueue(t *testing.T) {
	const qualifyAt = 1_700_000_000
	const rankAt = qualifyAt + 8*daySeconds

	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: qualifyAt},
		{ID: 2, Type: Rank, CreatedAt: rankAt},
	}

	got, err := Reduce(events, nil, false, tunables())
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	if got != nil {
		t.Errorf("queueDate = %v, want nil after rank", *got)
	}
}

func TestReduce_InconsistentLog(t *testing.T) {
	events := []MapEvent{
		{ID: 1, Type: Nominate, CreatedAt: 1_700_000_000, UserID: 1},
	}

	_, err := Reduce(events, nil, true, tunables())
	if err != ErrEventLogInconsistent {
		t.Errorf("err = %v, want ErrEventLogInconsistent", err)
	}
}

func TestReduce_PenaltyCappedAtMaximum(t *testing.T) {
	const qualifyAt = 1_700_000_000
	const dqAt = qualifyAt + 1*daySeconds
	const requalifyAt = dqAt + 400*daySeconds // far more than MaximumPenaltyDays*7 days

	events := []MapEvent{
		{ID: 1, Type: Qualify, CreatedAt: qualifyAt},
		{ID: 2, Type: Disqualify, CreatedAt: dqAt, BeatmapIDs: []int64{1}},
		{ID: 3, Type: Qualify, CreatedAt: requalifyAt, BeatmapIDs: []int64{1}},
	}

	tu := tunables()
	got, err := Reduce(events, []int64{1}, true, tu)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	creditCap := int64(tu.MinimumDaysForRank-1) * daySeconds
	credit := int64(daySeconds)
	if credit > creditCap {
		credit = creditCap
	}
	want := requalifyAt - credit + int64(tu.MaximumPenaltyDays)*daySeconds + int64(tu.MinimumDaysForRank)*daySeconds
	if got == nil || *got != want {
		t.Errorf("queueDate = %v, want %v (penalty capped at %d days)", got, want, tu.MaximumPenaltyDays)
	}
}
