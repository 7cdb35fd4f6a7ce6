package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/core/matching"
	"github.com/jakechorley/dance-matcher/pkg/core/registry"
	"github.com/jakechorley/dance-matcher/pkg/db"
	"github.com/jakechorley/dance-matcher/pkg/metrics"
	"github.com/jakechorley/dance-matcher/pkg/report"
	"github.com/jakechorley/dance-matcher/pkg/tables"
)

// ErrInvalidMatching is returned when the finished matching breaks an invariant
var ErrInvalidMatching = errors.New("matching failed validation")

// RunMatchingParams configures one matching run
type RunMatchingParams struct {
	Env        string
	SourceName string
	Tables     tables.Options

	// Seed fixes tie-breaking; nil draws a fresh seed
	Seed     *uint64
	Fallback bool

	// OutputDir receives the CSV reports; empty skips them
	OutputDir string

	// MetricsFile receives a Prometheus textfile; empty skips it
	MetricsFile string

	// DryRun skips persistence and publishing
	DryRun bool

	// ResultsSpreadsheetID receives the report tabs when a publisher is supplied
	ResultsSpreadsheetID string
}

// RunMatchingResult describes a finished run
type RunMatchingResult struct {
	Run           db.MatchRun
	Registry      *registry.Registry
	Result        *matching.Result
	ReportPaths   []string
	PublishedTabs []string
	Persisted     bool
}

// RunMatching loads the input tables, matches dancers to dances, checks the result and
// writes it out. store and publisher may be nil.
func RunMatching(
	ctx context.Context,
	src tables.Source,
	store MatchRunStore,
	publisher ResultPublisher,
	params RunMatchingParams,
	logger *zap.Logger,
) (*RunMatchingResult, error) {
	started := time.Now()

	logger.Debug("Loading input tables", zap.String("source", params.SourceName))
	reg, err := tables.Load(ctx, src, params.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to load input tables: %w", err)
	}
	logger.Info("Input tables loaded",
		zap.Int("dances", reg.Dances.Len()),
		zap.Int("dancers", reg.Dancers.Len()))

	result, err := matching.Run(reg, matching.Options{
		Seed:                  params.Seed,
		FallbackToAnyCapacity: params.Fallback,
		Logger:                logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run matching: %w", err)
	}
	logger.Info("Matching complete",
		zap.Uint64("seed", result.Seed),
		zap.Int("matched", result.MatchedCount()),
		zap.Int("unmatched", len(result.UnmatchedDancers)),
		zap.Int("proposals", result.Proposals))

	violations := matching.Validate(reg, result)
	for _, v := range violations {
		logger.Error("Matching invariant violated",
			zap.String("check", v.CheckName),
			zap.String("dance", v.DanceName),
			zap.String("dancer", v.DancerKey),
			zap.String("description", v.Description))
	}

	if params.MetricsFile != "" {
		recorder := metrics.NewRecorder(metrics.WithConstLabels(map[string]string{"env": params.Env}))
		recorder.ObserveRun(result, totalOpenSpots(reg), len(violations), time.Since(started))
		if err := recorder.WriteTextfile(params.MetricsFile); err != nil {
			return nil, err
		}
		logger.Debug("Metrics written", zap.String("path", params.MetricsFile))
	}

	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %d violations", ErrInvalidMatching, len(violations))
	}

	out := &RunMatchingResult{
		Registry: reg,
		Result:   result,
	}
	run, dances, assignments := NewRunRecords(reg, result, params, time.Now())
	out.Run = run

	if params.OutputDir != "" {
		out.ReportPaths, err = report.WriteCSV(params.OutputDir, reg)
		if err != nil {
			return nil, err
		}
		logger.Info("Reports written", zap.Strings("paths", out.ReportPaths))
	}

	if params.DryRun {
		logger.Info("Dry run, skipping persistence and publishing")
		return out, nil
	}

	if store != nil {
		if err := store.InsertMatchRun(ctx, &run, dances, assignments); err != nil {
			return nil, fmt.Errorf("failed to save match run: %w", err)
		}
		out.Persisted = true
		logger.Info("Match run saved", zap.String("run_id", run.ID))
	}

	if publisher != nil {
		out.PublishedTabs, err = publishReports(ctx, publisher, params.ResultsSpreadsheetID, reg, run)
		if err != nil {
			return nil, err
		}
		logger.Info("Reports published",
			zap.String("spreadsheet_id", params.ResultsSpreadsheetID),
			zap.Strings("tabs", out.PublishedTabs))
	}

	return out, nil
}

// NewRunRecords converts a matched registry into the rows persisted for a run
func NewRunRecords(reg *registry.Registry, result *matching.Result, params RunMatchingParams, now time.Time) (db.MatchRun, []db.DanceResult, []db.DancerAssignment) {
	run := db.MatchRun{
		ID:         uuid.NewString(),
		Env:        params.Env,
		Seed:       result.Seed,
		Source:     params.SourceName,
		RejectTier: reg.RejectTier,
		Fallback:   params.Fallback,
		Dancers:    reg.Dancers.Len(),
		Matched:    result.MatchedCount(),
		Proposals:  result.Proposals,
		CreatedAt:  now,
	}

	dances := make([]db.DanceResult, 0, reg.Dances.Len())
	for i, dance := range reg.Dances.All() {
		dances = append(dances, db.DanceResult{
			RunID:     run.ID,
			Position:  i,
			DanceName: dance.Name,
			Quota:     dance.Quota,
			Matchings: dance.Matchings,
			Rankings:  dance.Rankings(),
			OpenSpots: dance.OpenSpots(),
		})
	}

	assignments := make([]db.DancerAssignment, 0, reg.Dancers.Len())
	for i, dancer := range reg.Dancers.All() {
		assignments = append(assignments, db.DancerAssignment{
			RunID:      run.ID,
			Position:   i,
			DancerKey:  dancer.Key,
			DancerName: dancer.Name,
			Choices:    dancer.Choices,
			DanceName:  dancer.Dance,
		})
	}

	return run, dances, assignments
}

// ReportTabs returns the tab titles a run's reports are published under. The run ID
// prefix keeps runs created in the same second apart.
func ReportTabs(run db.MatchRun) (byDancer, byDance string) {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	stamp := fmt.Sprintf("%s %s", run.CreatedAt.Format("2006-01-02 15:04:05"), id)
	return fmt.Sprintf("%s by dancer", stamp), fmt.Sprintf("%s by dance", stamp)
}

func publishReports(ctx context.Context, publisher ResultPublisher, spreadsheetID string, reg *registry.Registry, run db.MatchRun) ([]string, error) {
	byDancerTab, byDanceTab := ReportTabs(run)

	header, rows := report.Table(report.ByDancerHeader, report.ByDancer(reg))
	if err := publisher.PublishTable(ctx, spreadsheetID, byDancerTab, header, rows); err != nil {
		return nil, fmt.Errorf("failed to publish by-dancer report: %w", err)
	}

	header, rows = report.Table(report.ByDanceHeader, report.ByDance(reg))
	if err := publisher.PublishTable(ctx, spreadsheetID, byDanceTab, header, rows); err != nil {
		return nil, fmt.Errorf("failed to publish by-dance report: %w", err)
	}

	return []string{byDancerTab, byDanceTab}, nil
}

func totalOpenSpots(reg *registry.Registry) int {
	total := 0
	for _, dance := range reg.Dances.All() {
		total += dance.OpenSpots()
	}
	return total
}
