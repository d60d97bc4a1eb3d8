// Package snapshot is the persistence adapter: it reads the current
// beatmapsets row snapshot (qualified sets plus the recent-ranked tail)
// and writes the updated row set back after a cycle, against a local
// pure-Go SQLite store.
package snapshot

import (
	"encoding/json"
	"math"
	"time"

	"rankproj/internal/beatmap"
)

// Row is the persisted shape of one beatmapsets row, all times as integer
// epoch seconds.
type Row struct {
	ID            int64
	QueueDate     *int64
	RankDate      int64
	RankDateEarly *int64
	Artist        string
	Title         string
	Mapper        string
	MapperID      int64
	Probability   *float64
	Unresolved    bool
	Beatmaps      []beatmap.Beatmap
}

// ToBeatmapSet converts a persisted row into the in-memory domain model the
// reducer and projector operate on.
func (r Row) ToBeatmapSet() *beatmap.BeatmapSet {
	set := &beatmap.BeatmapSet{
		ID:       r.ID,
		Artist:   r.Artist,
		Title:    r.Title,
		Mapper:   r.Mapper,
		MapperID: r.MapperID,
		Beatmaps: r.Beatmaps,
	}
	if r.QueueDate != nil {
		t := time.Unix(*r.QueueDate, 0).UTC()
		set.QueueDate = &t
	}
	set.RankDate = time.Unix(r.RankDate, 0).UTC()
	if r.RankDateEarly != nil {
		set.RankDateEarly = time.Unix(*r.RankDateEarly, 0).UTC()
	} else {
		set.RankDateEarly = set.RankDate
	}
	set.Probability = r.Probability
	set.Unresolved = r.Unresolved
	return set
}

// RowFromBeatmapSet converts a projected in-memory set back to its
// persisted row shape. Probability is truncated to 5 decimal places so
// repeated cycles produce stable diffs against the previous snapshot.
func RowFromBeatmapSet(set *beatmap.BeatmapSet) Row {
	row := Row{
		ID:       set.ID,
		Artist:   set.Artist,
		Title:    set.Title,
		Mapper:   set.Mapper,
		MapperID: set.MapperID,
		Beatmaps: set.Beatmaps,
	}
	if set.QueueDate != nil {
		v := set.QueueDate.Unix()
		row.QueueDate = &v
	}
	row.RankDate = set.RankDate.Unix()
	if !set.RankDateEarly.Equal(set.RankDate) {
		v := set.RankDateEarly.Unix()
		row.RankDateEarly = &v
	}
	if set.Probability != nil {
		p := truncate5(*set.Probability)
		row.Probability = &p
	}
	row.Unresolved = set.Unresolved
	return row
}

func truncate5(v float64) float64 {
	return math.Trunc(v*100000) / 100000
}

func marshalBeatmaps(beatmaps []beatmap.Beatmap) (string, error) {
	b, err := json.Marshal(beatmaps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalBeatmaps(data string) ([]beatmap.Beatmap, error) {
	if data == "" {
		return nil, nil
	}
	var beatmaps []beatmap.Beatmap
	if err := json.Unmarshal([]byte(data), &beatmaps); err != nil {
		return nil, err
	}
	return beatmaps, nil
}
