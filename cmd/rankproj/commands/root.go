package commands

import (
	"context"

	"rankproj/internal/config"
	"rankproj/internal/cycle"
	"rankproj/internal/eventlog"
	"rankproj/internal/logging"
	"rankproj/internal/osuapi"
	"rankproj/internal/snapshot"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	apiClient osuapi.Client
	db        *snapshot.DB
	events    *eventlog.Provider
)

var rootCmd = &cobra.Command{
	Use:   "rankproj",
	Short: "rankproj projects rank dates for qualified beatmap sets",
	Long: `rankproj predicts when pending beatmap submissions transition from the
"qualified" state to the "ranked" state, given the platform's per-day
quotas, per-mode interleaving, and queue-time penalties.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		apiClient = osuapi.NewClient(cfg.OsuAPI)

		db, err = snapshot.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open snapshot database")
		}

		store := eventlog.NewStore()
		fetcher := osuapi.EventFetcher{Client: apiClient}
		events = eventlog.NewProvider(fetcher, store, cfg.CacheDir, nil)
		if err := events.LoadCache(); err != nil {
			log.Warn().Err(err).Msg("Failed to load event cache, starting cold")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("rankproj starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := cycle.NewRunner(db, apiClient, events, cfg.Tunables, cfg.EventLogTunables, cycle.NewMetrics())
		if err := runner.Run(context.Background()); err != nil {
			return err
		}
		return events.SaveCache()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
