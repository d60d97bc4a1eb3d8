package osuapi

import (
	"time"

	"rankproj/internal/beatmap"
	"rankproj/internal/eventlog"
)

// BeatmapSetDTO is the wire shape of `beatmapsets/{id}`.
type BeatmapSetDTO struct {
	ID         int64        `json:"id"`
	Artist     string       `json:"artist"`
	Title      string       `json:"title"`
	Creator    string       `json:"creator"`
	UserID     int64        `json:"user_id"`
	RankedDate string       `json:"ranked_date"`
	Status     string       `json:"status"`
	Beatmaps   []BeatmapDTO `json:"beatmaps"`
}

// BeatmapDTO is one difficulty within a set.
type BeatmapDTO struct {
	ID              int64   `json:"id"`
	Version         string  `json:"version"`
	CountSpinners   int     `json:"count_spinners"`
	DifficultyRating float64 `json:"difficulty_rating"`
	TotalLength     int     `json:"total_length"`
	ModeInt         int     `json:"mode_int"`
}

// EventDTO is one entry of `beatmapsets/events`.
type EventDTO struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Beatmapset *struct {
		ID int64 `json:"id"`
	} `json:"beatmapset"`
	Discussion *struct {
		BeatmapsetID int64 `json:"beatmapset_id"`
	} `json:"discussion"`
	UserID  int64 `json:"user_id"`
	Comment *struct {
		BeatmapIDs   []int64 `json:"beatmap_ids"`
		NominatorIDs []int64 `json:"nominator_ids"`
	} `json:"comment"`
}

// ToBeatmapSet converts the wire DTO to the domain model. A malformed
// ranked_date is treated as absent rather than failing the whole set.
func (d *BeatmapSetDTO) ToBeatmapSet() *beatmap.BeatmapSet {
	set := &beatmap.BeatmapSet{
		ID:     d.ID,
		Artist: d.Artist,
		Title:  d.Title,
		Mapper: d.Creator,
		MapperID: d.UserID,
	}
	for _, b := range d.Beatmaps {
		set.Beatmaps = append(set.Beatmaps, beatmap.Beatmap{
			ID:            b.ID,
			Version:       b.Version,
			SpinnerCount:  b.CountSpinners,
			StarRating:    b.DifficultyRating,
			LengthSeconds: b.TotalLength,
			Mode:          beatmap.Mode(b.ModeInt),
		})
	}
	beatmap.SortBeatmapsByStarRating(set.Beatmaps)
	if t, err := time.Parse(time.RFC3339, d.RankedDate); err == nil {
		set.RankDate = t
	}
	return set
}

// eventTypeFromWire maps the wire event type string onto eventlog.EventType.
func eventTypeFromWire(t string) eventlog.EventType {
	switch t {
	case "qualify":
		return eventlog.Qualify
	case "disqualify":
		return eventlog.Disqualify
	case "rank":
		return eventlog.Rank
	case "nominate":
		return eventlog.Nominate
	case "nomination_reset":
		return eventlog.NominationReset
	default:
		return eventlog.EventType(t)
	}
}

// ToMapEvent converts the wire DTO to the domain event. Events carry their
// beatmapset id either on `beatmapset.id` (qualify/disqualify/rank) or
// `discussion.beatmapset_id` (nominate/nomination_reset).
func (d *EventDTO) ToMapEvent() eventlog.MapEvent {
	e := eventlog.MapEvent{
		ID:     d.ID,
		Type:   eventTypeFromWire(d.Type),
		UserID: d.UserID,
	}
	if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		e.CreatedAt = t.Unix()
	}
	if d.Beatmapset != nil {
		e.BeatmapSetID = d.Beatmapset.ID
	} else if d.Discussion != nil {
		e.BeatmapSetID = d.Discussion.BeatmapsetID
	}
	if d.Comment != nil {
		e.BeatmapIDs = d.Comment.BeatmapIDs
		e.Nominators = d.Comment.NominatorIDs
	}
	return e
}
