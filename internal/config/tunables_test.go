package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_TunablesTomlOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := `
rank_interval_minutes = 30
rank_per_run = 5
rank_per_day = 10
minimum_days_for_rank = 7
maximum_penalty_days = 7
delay_min_seconds = 1
delay_max_seconds = 45
split = 0.6
`
	if err := os.WriteFile(filepath.Join(dir, "tunables.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_PATH", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tunables.RankPerRun != 5 || cfg.Tunables.RankPerDay != 10 {
		t.Errorf("unexpected tunables: %+v", cfg.Tunables)
	}
	if cfg.Tunables.Split != 0.6 {
		t.Errorf("Split = %v, want 0.6", cfg.Tunables.Split)
	}
}

func TestLoad_DefaultsWhenNoTunablesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tunables.RankPerRun != 3 || cfg.Tunables.RankPerDay != 8 {
		t.Errorf("expected compiled-in defaults, got %+v", cfg.Tunables)
	}
}
