// Package cycle orchestrates one end-to-end refresh: fetch the current
// database snapshot and event log, replay the reducer, run the projector,
// and write the updated row set back, all under one prometheus-observed,
// uuid-tagged cycle.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rankproj/internal/beatmap"
	"rankproj/internal/eventlog"
	"rankproj/internal/osuapi"
	"rankproj/internal/projector"
	"rankproj/internal/snapshot"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrMissingDatabaseSnapshot means either the qualified or ranked row set
// for some mode could not be read. Fatal to the cycle.
var ErrMissingDatabaseSnapshot = errors.New("cycle: database snapshot unreadable")

// Runner wires together the collaborators a refresh cycle needs.
type Runner struct {
	DB       *snapshot.DB
	API      osuapi.Client
	Events   *eventlog.Provider
	Tunables projector.Tunables
	EventLog eventlog.Tunables
	Metrics  *Metrics
}

// NewRunner builds a Runner from its collaborators.
func NewRunner(db *snapshot.DB, api osuapi.Client, events *eventlog.Provider, tunables projector.Tunables, eventLogTunables eventlog.Tunables, metrics *Metrics) *Runner {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Runner{DB: db, API: api, Events: events, Tunables: tunables, EventLog: eventLogTunables, Metrics: metrics}
}

// modeSnapshot is the materialized input for one mode, read before the
// projector runs.
type modeSnapshot struct {
	mode      beatmap.Mode
	qualified []snapshot.Row
	ranked    []snapshot.Row
}

// Run executes one refresh cycle. ctx bounds only the I/O phase (fetch);
// the pure reduce/project phase never yields and is not cancellable.
// A failure while fetching or reducing aborts the cycle before anything
// is written. The write phase replaces each mode's rows in its own
// transaction, one mode after another; a write failure for one mode
// leaves the modes already written in place and the later modes as they
// were.
func (r *Runner) Run(ctx context.Context) error {
	cycleID := uuid.New().String()
	clog := log.With().Str("cycle_id", cycleID).Logger()
	clog.Info().Msg("refresh cycle starting")

	snapshots, unresolvedIDs, err := r.fetchAll(ctx, clog)
	if err != nil {
		r.Metrics.CyclesFailed.Inc()
		return err
	}

	unresolved := make(map[int64]bool, len(unresolvedIDs))
	for _, id := range unresolvedIDs {
		unresolved[id] = true
	}

	var qualifiedByMode projector.ByMode
	var rankedByMode projector.ByMode
	var previousRows []snapshot.Row

	for _, ms := range snapshots {
		previousRows = append(previousRows, ms.qualified...)
		previousRows = append(previousRows, ms.ranked...)

		qualifiedSets := make([]*beatmap.BeatmapSet, 0, len(ms.qualified))
		for _, row := range ms.qualified {
			set := row.ToBeatmapSet()
			set.Unresolved = unresolved[set.ID]

			if err := r.hydrateAndReduce(set, clog); err != nil {
				if errors.Is(err, eventlog.ErrEventLogInconsistent) {
					clog.Warn().Int64("beatmapset_id", set.ID).Msg("event log inconsistent for qualified set, skipping")
					continue
				}
				r.Metrics.CyclesFailed.Inc()
				return fmt.Errorf("cycle: reduce set %d: %w", set.ID, err)
			}

			qualifiedSets = append(qualifiedSets, set)
		}
		qualifiedByMode[ms.mode] = qualifiedSets

		rankedSets := make([]*beatmap.BeatmapSet, 0, len(ms.ranked))
		for _, row := range ms.ranked {
			rankedSets = append(rankedSets, row.ToBeatmapSet())
		}
		rankedByMode[ms.mode] = rankedSets
	}

	projector.AdjustAllRankDates(qualifiedByMode, rankedByMode, r.Tunables)

	var currentRows []snapshot.Row
	for mode := beatmap.Mode(0); int(mode) < beatmap.ModeCount; mode++ {
		rows := make([]snapshot.Row, 0, len(qualifiedByMode[mode])+len(rankedByMode[mode]))
		for _, set := range qualifiedByMode[mode] {
			rows = append(rows, snapshot.RowFromBeatmapSet(set))
		}
		for _, set := range rankedByMode[mode] {
			rows = append(rows, snapshot.RowFromBeatmapSet(set))
		}
		currentRows = append(currentRows, rows...)

		if err := r.DB.WriteAll(int(mode), rows); err != nil {
			r.Metrics.CyclesFailed.Inc()
			return fmt.Errorf("cycle: write mode %d: %w", mode, err)
		}
		r.Metrics.SetsProjected.WithLabelValues(strconv.Itoa(int(mode))).Add(float64(len(qualifiedByMode[mode])))
	}

	changed := snapshot.Diff(previousRows, currentRows)
	clog.Info().Int("changed_rows", len(changed)).Msg("refresh cycle complete")

	r.Metrics.CyclesRun.Inc()
	return nil
}

// fetchAll materializes every mode's current snapshot plus the
// unresolved-discussion listing in parallel, before any pure computation
// runs.
func (r *Runner) fetchAll(ctx context.Context, clog zerolog.Logger) ([]modeSnapshot, []int64, error) {
	snapshots := make([]modeSnapshot, beatmap.ModeCount)
	var unresolvedIDs []int64

	g, ctx := errgroup.WithContext(ctx)
	for m := 0; m < beatmap.ModeCount; m++ {
		mode := m
		g.Go(func() error {
			qualified, err := r.DB.ReadQualified(mode)
			if err != nil {
				return fmt.Errorf("%w: mode %d qualified: %v", ErrMissingDatabaseSnapshot, mode, err)
			}
			ranked, err := r.DB.ReadRankedTail(mode, time.Now())
			if err != nil {
				return fmt.Errorf("%w: mode %d ranked tail: %v", ErrMissingDatabaseSnapshot, mode, err)
			}
			snapshots[mode] = modeSnapshot{mode: beatmap.Mode(mode), qualified: qualified, ranked: ranked}
			return nil
		})
	}
	g.Go(func() error {
		ids, err := r.API.FetchUnresolvedDiscussionSetIDs()
		r.Metrics.APICallsMade.Inc()
		if err != nil {
			return fmt.Errorf("cycle: fetch unresolved discussions: %w", err)
		}
		unresolvedIDs = ids
		return nil
	})
	g.Go(func() error {
		if err := r.Events.SyncGlobalIncremental(); err != nil {
			return fmt.Errorf("cycle: sync global events: %w", err)
		}
		r.Metrics.APICallsMade.Inc()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snapshots, unresolvedIDs, nil
}

// hydrateAndReduce ensures the event log for a qualified set is hydrated
// (fetching its full history on first sight) and re-derives its queue
// date from the replayed log.
func (r *Runner) hydrateAndReduce(set *beatmap.BeatmapSet, clog zerolog.Logger) error {
	wasHydrated := len(r.Events.Events(set.ID)) > 0
	if err := r.Events.HydrateSet(set.ID); err != nil {
		return err
	}
	if !wasHydrated {
		r.Metrics.APICallsMade.Inc()
		clog.Debug().Int64("beatmapset_id", set.ID).Msg("hydrated event log for newly qualified set")
	}

	events := r.Events.Events(set.ID)
	queuedAt, err := eventlog.Reduce(events, idsOf(set.Beatmaps), true, r.EventLog)
	if err != nil {
		return err
	}

	qd := time.Unix(*queuedAt, 0).UTC()
	set.QueueDate = &qd
	return nil
}

func idsOf(beatmaps []beatmap.Beatmap) []int64 {
	ids := make([]int64, len(beatmaps))
	for i, b := range beatmaps {
		ids[i] = b.ID
	}
	return ids
}
