package snapshot

// Diff returns the rows in current whose scheduling fields (queue date,
// rank date, early rank date, probability, unresolved flag) differ from
// their counterpart in previous (by id), plus any row in current whose id
// has no counterpart at all. Artist, title, mapper and beatmaps are not
// compared.
// Probability is already truncated to 5 decimal places by
// RowFromBeatmapSet, so equality here is stable across cycles that didn't
// actually change a set's schedule.
func Diff(previous, current []Row) []Row {
	byID := make(map[int64]Row, len(previous))
	for _, r := range previous {
		byID[r.ID] = r
	}

	var changed []Row
	for _, r := range current {
		prior, ok := byID[r.ID]
		if !ok || !equalRow(prior, r) {
			changed = append(changed, r)
		}
	}
	return changed
}

func equalRow(a, b Row) bool {
	if a.ID != b.ID || a.RankDate != b.RankDate || a.Unresolved != b.Unresolved {
		return false
	}
	if !equalInt64Ptr(a.QueueDate, b.QueueDate) || !equalInt64Ptr(a.RankDateEarly, b.RankDateEarly) {
		return false
	}
	if !equalFloatPtr(a.Probability, b.Probability) {
		return false
	}
	return true
}

func equalInt64Ptr(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func equalFloatPtr(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
