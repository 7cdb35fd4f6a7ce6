package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/internal/config"
	"github.com/jakechorley/dance-matcher/pkg/clients/sheetsclient"
	"github.com/jakechorley/dance-matcher/pkg/core/services"
	"github.com/jakechorley/dance-matcher/pkg/tables"
	"github.com/jakechorley/dance-matcher/pkg/tables/csvsource"
)

// matchFlags are the command line overrides for a match run
type matchFlags struct {
	quotas         string
	danceScores    string
	dancerRankings string
	seed           uint64
	seedSet        bool
	fallback       bool
	fallbackSet    bool
	dryRun         bool
	publish        bool
}

// MatchCmd creates the match command
func MatchCmd(app *AppContext) *cobra.Command {
	flags := &matchFlags{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match dancers to dances and write the results",
		Long: `Reads the quotas, dance scores and dancer rankings tables, runs dancer-proposing
deferred acceptance and writes matchings_by_dancer.csv and matchings_by_dance.csv.

Pass --seed to reproduce an earlier run's tie-breaking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.seedSet = cmd.Flags().Changed("seed")
			flags.fallbackSet = cmd.Flags().Changed("fallback")

			src, sourceName, err := inputSource(app, flags)
			if err != nil {
				return err
			}

			params := matchParams(app.Env, app.Cfg, flags, sourceName)

			var store services.MatchRunStore
			if app.Cfg.DatabaseURL != "" && !flags.dryRun {
				database, err := app.Database()
				if err != nil {
					return err
				}
				store = database
			}

			var publisher services.ResultPublisher
			if flags.publish && !flags.dryRun {
				if app.Cfg.Sheets == nil || app.Cfg.Sheets.ResultsSpreadsheetID == "" {
					return fmt.Errorf("--publish needs a sheets block with a results spreadsheet in the config")
				}
				client, err := app.SheetsClient()
				if err != nil {
					return err
				}
				publisher = client
			}

			app.Logger.Debug("match command",
				zap.String("source", sourceName),
				zap.Bool("dry_run", flags.dryRun),
				zap.Bool("publish", flags.publish))

			out, err := services.RunMatching(app.Ctx, src, store, publisher, params, app.Logger)
			if err != nil {
				return err
			}

			printMatchSummary(os.Stdout, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.quotas, "quotas", "", "Quotas CSV (overrides config)")
	cmd.Flags().StringVar(&flags.danceScores, "dance-scores", "", "Dance scores CSV (overrides config)")
	cmd.Flags().StringVar(&flags.dancerRankings, "dancer-rankings", "", "Dancer rankings CSV (overrides config)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "Seed for tie-breaking (default: random)")
	cmd.Flags().BoolVar(&flags.fallback, "fallback", false, "Let dancers fall back to any dance that ranked them")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Write reports only, without saving or publishing")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "Publish the reports to the results spreadsheet")

	return cmd
}

// inputSource picks CSV files when any path is given on the command line or the config
// uses csv, and the configured spreadsheet otherwise
func inputSource(app *AppContext, flags *matchFlags) (tables.Source, string, error) {
	if flags.quotas != "" || flags.danceScores != "" || flags.dancerRankings != "" || app.Cfg.Source == config.SourceCSV {
		src := csvSource(app.Cfg.CSV, flags)
		if src.QuotasPath == "" || src.DanceScoresPath == "" || src.DancerRankingsPath == "" {
			return nil, "", fmt.Errorf("all three CSV paths are required (--quotas, --dance-scores, --dancer-rankings)")
		}
		return src, config.SourceCSV, nil
	}

	client, err := app.SheetsClient()
	if err != nil {
		return nil, "", err
	}
	return &sheetsclient.InputSource{
		Client:            client,
		SpreadsheetID:     app.Cfg.Sheets.SpreadsheetID,
		QuotasTab:         app.Cfg.Sheets.QuotasTab,
		DanceScoresTab:    app.Cfg.Sheets.DanceScoresTab,
		DancerRankingsTab: app.Cfg.Sheets.DancerRankingsTab,
	}, config.SourceSheets, nil
}

// csvSource merges configured paths with command line overrides
func csvSource(cfg *config.CSVSource, flags *matchFlags) *csvsource.Source {
	src := &csvsource.Source{}
	if cfg != nil {
		src.QuotasPath = cfg.Quotas
		src.DanceScoresPath = cfg.DanceScores
		src.DancerRankingsPath = cfg.DancerRankings
	}
	if flags.quotas != "" {
		src.QuotasPath = flags.quotas
	}
	if flags.danceScores != "" {
		src.DanceScoresPath = flags.danceScores
	}
	if flags.dancerRankings != "" {
		src.DancerRankingsPath = flags.dancerRankings
	}
	return src
}

func matchParams(env string, cfg *config.Config, flags *matchFlags, sourceName string) services.RunMatchingParams {
	params := services.RunMatchingParams{
		Env:        env,
		SourceName: sourceName,
		Tables: tables.Options{
			HeaderRows: cfg.HeaderRows,
			RejectTier: cfg.RejectTier,
			MaxChoices: cfg.MaxChoices,
		},
		Fallback:    cfg.FallbackToAnyCapacity,
		OutputDir:   cfg.OutputDir,
		MetricsFile: cfg.MetricsFile,
		DryRun:      flags.dryRun,
	}
	if flags.seedSet {
		seed := flags.seed
		params.Seed = &seed
	}
	if flags.fallbackSet {
		params.Fallback = flags.fallback
	}
	if cfg.Sheets != nil {
		params.ResultsSpreadsheetID = cfg.Sheets.ResultsSpreadsheetID
	}
	return params
}

func printMatchSummary(w io.Writer, out *services.RunMatchingResult) {
	fmt.Fprintf(w, "\n✓ Matching complete\n\n")
	fmt.Fprintf(w, "Seed:      %d\n", out.Result.Seed)
	fmt.Fprintf(w, "Matched:   %d of %d dancers\n", out.Result.MatchedCount(), out.Registry.Dancers.Len())
	fmt.Fprintf(w, "Proposals: %d\n\n", out.Result.Proposals)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DANCE\tQUOTA\tMATCHED\tOPEN")
	for _, dance := range out.Registry.Dances.All() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", dance.Name, dance.Quota, len(dance.Matchings), dance.OpenSpots())
	}
	tw.Flush()

	if len(out.Result.UnmatchedDancers) > 0 {
		fmt.Fprintf(w, "\nUnmatched dancers (%d):\n", len(out.Result.UnmatchedDancers))
		for _, key := range out.Result.UnmatchedDancers {
			fmt.Fprintf(w, "  - %s\n", key)
		}
	}

	if len(out.ReportPaths) > 0 {
		fmt.Fprintf(w, "\nReports: %s\n", strings.Join(out.ReportPaths, ", "))
	}
	if out.Persisted {
		fmt.Fprintf(w, "Run ID:  %s\n", out.Run.ID)
	}
	if len(out.PublishedTabs) > 0 {
		fmt.Fprintf(w, "Published tabs: %s\n", strings.Join(out.PublishedTabs, ", "))
	}
	fmt.Fprintln(w)
}
