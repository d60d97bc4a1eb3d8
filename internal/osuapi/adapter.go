package osuapi

import "rankproj/internal/eventlog"

// EventFetcher adapts a Client to eventlog.EventFetcher, translating wire
// DTOs to domain events at the boundary.
type EventFetcher struct {
	Client Client
}

func (f EventFetcher) FetchSetEvents(beatmapSetID int64) ([]eventlog.MapEvent, error) {
	dtos, err := f.Client.FetchSetEvents(beatmapSetID)
	if err != nil {
		return nil, err
	}
	events := make([]eventlog.MapEvent, len(dtos))
	for i, d := range dtos {
		events[i] = d.ToMapEvent()
	}
	return events, nil
}

func (f EventFetcher) FetchGlobalEventsPage(page, limit int) ([]eventlog.MapEvent, int64, error) {
	dtos, err := f.Client.FetchGlobalEventsPage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	events := make([]eventlog.MapEvent, len(dtos))
	for i, d := range dtos {
		events[i] = d.ToMapEvent()
	}
	var firstID int64
	if len(dtos) > 0 {
		firstID = dtos[0].ID
	}
	return events, firstID, nil
}
