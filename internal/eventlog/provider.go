package eventlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrTooManyPages is returned by SyncGlobal when the paged global walker
// exceeds maxPages without reaching lastEventID — the open question in
// §9 about a silently-deleted lastEventID is resolved by surfacing this
// as an ApiFailure-shaped error rather than looping forever.
var ErrTooManyPages = errors.New("eventlog: exceeded maximum page count before reaching lastEventID")

const (
	pageSize           = 50
	maxPages           = 500
	pagesBeforePause   = 30
	pauseBetweenBursts = 60 * time.Second
)

// EventFetcher is the subset of the upstream REST client (internal/osuapi)
// the provider needs to hydrate and incrementally sync the event log.
type EventFetcher interface {
	// FetchSetEvents returns the full moderation history for one beatmap
	// set, used the first time a set is seen as qualified.
	FetchSetEvents(beatmapSetID int64) ([]MapEvent, error)
	// FetchGlobalEventsPage returns one page of the global paged event
	// stream, plus the id of the first event on page 1 (the new
	// lastEventID once the walk completes).
	FetchGlobalEventsPage(page, limit int) (events []MapEvent, firstPageEventID int64, err error)
}

// Sleeper abstracts time.Sleep so tests can run the rate-limit pause
// without actually blocking for a minute.
type Sleeper func(time.Duration)

// Provider hydrates and incrementally syncs a Store from the upstream
// platform, mirroring the teacher's LogProvider cache-then-fetch shape.
type Provider struct {
	client      EventFetcher
	store       *Store
	cacheDir    string
	sleep       Sleeper
	lastEventID int64
}

// NewProvider creates a Provider. A nil sleeper defaults to time.Sleep.
func NewProvider(client EventFetcher, store *Store, cacheDir string, sleep Sleeper) *Provider {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Provider{client: client, store: store, cacheDir: cacheDir, sleep: sleep}
}

// HydrateSet fetches and stores the full event history for a beatmap set
// seen as newly qualified, for which no cached history exists yet.
func (p *Provider) HydrateSet(beatmapSetID int64) error {
	if p.store.Count(beatmapSetID) > 0 {
		return nil
	}
	events, err := p.client.FetchSetEvents(beatmapSetID)
	if err != nil {
		return fmt.Errorf("hydrate set %d: %w", beatmapSetID, err)
	}
	p.store.Append(beatmapSetID, events)
	return nil
}

// SyncGlobal walks the paged global event stream from page 1 until it
// observes an event with id equal to lastEventID (or runs out of pages),
// appending every newly-seen event to the store. It returns the id to use
// as lastEventID on the next call: the first event on page 1.
//
// Per §5, the walker pauses for 60 seconds after every 30 successful page
// fetches.
func (p *Provider) SyncGlobal(lastEventID int64) (int64, error) {
	var newLastEventID int64
	pagesFetched := 0

	for page := 1; page <= maxPages; page++ {
		events, firstPageEventID, err := p.client.FetchGlobalEventsPage(page, pageSize)
		if err != nil {
			return 0, fmt.Errorf("sync global events, page %d: %w", page, err)
		}
		if page == 1 {
			newLastEventID = firstPageEventID
		}

		reachedKnown := false
		for _, e := range events {
			if lastEventID != 0 && e.identity() == lastEventID {
				reachedKnown = true
				break
			}
			p.store.Append(e.BeatmapSetID, []MapEvent{e})
		}

		pagesFetched++
		if reachedKnown || len(events) == 0 {
			return newLastEventID, nil
		}

		if pagesFetched%pagesBeforePause == 0 {
			log.Debug().Int("pages", pagesFetched).Msg("Paged event walker: rate-limit pause")
			p.sleep(pauseBetweenBursts)
		}
	}

	return 0, ErrTooManyPages
}

// LoadCache loads the event store and the last-synced global event id from
// disk if a cache exists.
func (p *Provider) LoadCache() error {
	if p.cacheDir == "" {
		return nil
	}
	if err := p.store.Load(p.cacheDir); err != nil {
		return err
	}
	id, err := readLastEventID(p.cacheDir)
	if err != nil {
		return err
	}
	p.lastEventID = id
	return nil
}

// SaveCache persists the event store and the last-synced global event id to
// disk.
func (p *Provider) SaveCache() error {
	if p.cacheDir == "" {
		return nil
	}
	if err := p.store.Save(p.cacheDir); err != nil {
		return err
	}
	return writeLastEventID(p.cacheDir, p.lastEventID)
}

// SyncGlobalIncremental walks the global event stream from the
// last-synced event id recorded on this Provider, updating it for the
// next call.
func (p *Provider) SyncGlobalIncremental() error {
	newLastEventID, err := p.SyncGlobal(p.lastEventID)
	if err != nil {
		return err
	}
	p.lastEventID = newLastEventID
	return nil
}

func lastEventIDPath(cacheDir string) string {
	return filepath.Join(cacheDir, "last-event-id.txt")
}

func readLastEventID(cacheDir string) (int64, error) {
	data, err := os.ReadFile(lastEventIDPath(cacheDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read last-event-id cache: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse last-event-id cache: %w", err)
	}
	return id, nil
}

func writeLastEventID(cacheDir string, id int64) error {
	path := lastEventIDPath(cacheDir)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strconv.FormatInt(id, 10)), 0644); err != nil {
		return fmt.Errorf("failed to write last-event-id cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename last-event-id cache: %w", err)
	}
	return nil
}

// Events returns the chronological event log for one beatmap set.
func (p *Provider) Events(beatmapSetID int64) []MapEvent {
	return p.store.Events(beatmapSetID)
}
