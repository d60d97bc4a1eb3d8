package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store provides thread-safe, chronological storage for MapEvents,
// partitioned by beatmap set id and deduplicated by event id — the same
// shape the external paged event stream (§6) can redeliver across
// overlapping pages.
type Store struct {
	mu   sync.RWMutex
	logs map[int64][]MapEvent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{logs: make(map[int64][]MapEvent)}
}

// Append adds new events to the log for a given beatmap set, deduplicating
// by event id and keeping the log sorted chronologically.
func (s *Store) Append(beatmapSetID int64, events []MapEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existingLog := s.logs[beatmapSetID]
	seen := make(map[int64]bool, len(existingLog))
	for _, e := range existingLog {
		seen[e.identity()] = true
	}

	added := 0
	for _, e := range events {
		if !seen[e.identity()] {
			existingLog = append(existingLog, e)
			seen[e.identity()] = true
			added++
		}
	}
	if added == 0 {
		return
	}

	sort.SliceStable(existingLog, func(i, j int) bool {
		return existingLog[i].CreatedAt < existingLog[j].CreatedAt
	})
	s.logs[beatmapSetID] = existingLog
}

// Events returns a copy of the chronological event log for one set.
func (s *Store) Events(beatmapSetID int64) []MapEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[beatmapSetID]
	out := make([]MapEvent, len(log))
	copy(out, log)
	return out
}

// Count returns the number of events stored for a beatmap set.
func (s *Store) Count(beatmapSetID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[beatmapSetID])
}

// Load reads events from a JSONL cache file, one event per line, and
// merges them into the store.
func (s *Store) Load(cacheDir string) error {
	path := filepath.Join(cacheDir, "beatmapset-events.jsonl")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open event cache: %w", err)
	}
	defer file.Close()

	byBeatmapSet := make(map[int64][]MapEvent)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e MapEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Msg("Skipping invalid JSON line in event cache")
			continue
		}
		byBeatmapSet[e.BeatmapSetID] = append(byBeatmapSet[e.BeatmapSetID], e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading event cache: %w", err)
	}

	for id, events := range byBeatmapSet {
		s.Append(id, events)
	}
	log.Info().Int("sets", len(byBeatmapSet)).Msg("Loaded beatmap set events from cache")
	return nil
}

// Save persists the entire store to a JSONL cache file, atomically.
func (s *Store) Save(cacheDir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(cacheDir, "beatmapset-events.jsonl")
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp event cache: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	total := 0
	for _, events := range s.logs {
		for _, e := range events {
			if err := encoder.Encode(e); err != nil {
				file.Close()
				os.Remove(tmpPath)
				return fmt.Errorf("failed to encode event: %w", err)
			}
			total++
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush event cache: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close event cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename event cache: %w", err)
	}

	log.Info().Int("events", total).Msg("Persisted beatmap set events to cache")
	return nil
}
