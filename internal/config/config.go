package config

import (
	"os"
	"path/filepath"
	"time"

	"rankproj/internal/eventlog"
	"rankproj/internal/osuapi"
	"rankproj/internal/probability"
	"rankproj/internal/projector"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	OsuAPI        osuapi.Config
	Tunables      projector.Tunables
	EventLogTunables eventlog.Tunables

	DataPath string
	LogDir   string
	CacheDir string
	DBPath   string
}

// tunablesFile is the TOML shape for the tunable constants, loaded from
// tunables.toml in the data directory (DATA_PATH, defaulting to the
// binary's directory), matching the pack's own use of github.com/BurntSushi/toml
// for compile-time-adjacent constants.
type tunablesFile struct {
	RankIntervalMinutes int     `toml:"rank_interval_minutes"`
	RankPerRun          int     `toml:"rank_per_run"`
	RankPerDay          int     `toml:"rank_per_day"`
	MinimumDaysForRank  int     `toml:"minimum_days_for_rank"`
	MaximumPenaltyDays  int     `toml:"maximum_penalty_days"`
	DelayMinSeconds     float64 `toml:"delay_min_seconds"`
	DelayMaxSeconds     float64 `toml:"delay_max_seconds"`
	Split               float64 `toml:"split"`
}

func defaultTunablesFile() tunablesFile {
	return tunablesFile{
		RankIntervalMinutes: 20,
		RankPerRun:          3,
		RankPerDay:          8,
		MinimumDaysForRank:  7,
		MaximumPenaltyDays:  7,
		DelayMinSeconds:     0,
		DelayMaxSeconds:     60,
		Split:               0.5,
	}
}

// Load loads the configuration from .env files, environment variables, and
// a tunables.toml file, with compiled-in defaults so the binary runs out
// of the box.
func Load() (*AppConfig, error) {
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	tf := defaultTunablesFile()
	tomlPath := filepath.Join(dataPath, "tunables.toml")
	if _, statErr := os.Stat(tomlPath); statErr == nil {
		if _, err := toml.DecodeFile(tomlPath, &tf); err != nil {
			log.Warn().Err(err).Str("path", tomlPath).Msg("Failed to parse tunables.toml, using compiled-in defaults")
			tf = defaultTunablesFile()
		}
	}

	cfg := &AppConfig{
		OsuAPI: osuapi.Config{
			BaseURL:      getEnv("OSU_API_BASE_URL", "https://osu.ppy.sh/api/v2"),
			TokenURL:     getEnv("OSU_OAUTH_TOKEN_URL", "https://osu.ppy.sh/oauth/token"),
			ClientID:     getEnv("CLIENT_ID", ""),
			ClientSecret: getEnv("CLIENT_SECRET", ""),
		},
		Tunables: projector.Tunables{
			RankInterval: time.Duration(tf.RankIntervalMinutes) * time.Minute,
			RankPerRun:   tf.RankPerRun,
			RankPerDay:   tf.RankPerDay,
			Split:        tf.Split,
			Delay: probability.Tunables{
				DelayMin: tf.DelayMinSeconds,
				DelayMax: tf.DelayMaxSeconds,
			},
		},
		EventLogTunables: eventlog.Tunables{
			MinimumDaysForRank: tf.MinimumDaysForRank,
			MaximumPenaltyDays: tf.MaximumPenaltyDays,
		},
		DataPath: dataPath,
		LogDir:   logDir,
		CacheDir: cacheDir,
		DBPath:   filepath.Join(dataPath, "beatmapsets.db"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
