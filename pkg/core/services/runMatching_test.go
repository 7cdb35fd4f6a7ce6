package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/core/registry"
	"github.com/jakechorley/dance-matcher/pkg/db"
	"github.com/jakechorley/dance-matcher/pkg/report"
	"github.com/jakechorley/dance-matcher/pkg/tables"
)

func baseParams(t *testing.T) RunMatchingParams {
	seed := uint64(42)
	return RunMatchingParams{
		Env:                  "test",
		SourceName:           "csv",
		Tables:               tables.Options{RejectTier: 3, MaxChoices: 3},
		Seed:                 &seed,
		OutputDir:            t.TempDir(),
		ResultsSpreadsheetID: "results-sheet",
	}
}

func TestRunMatching_FullRun(t *testing.T) {
	store := newMockStore()
	publisher := &mockPublisher{}
	params := baseParams(t)
	params.MetricsFile = filepath.Join(params.OutputDir, "dance_matcher.prom")

	out, err := RunMatching(context.Background(), threeDancerSource(), store, publisher, params, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, uint64(42), out.Result.Seed)
	assert.Equal(t, map[string]string{
		"alice@example.com": "Tango",
		"bob@example.com":   "Waltz",
	}, out.Result.Assignments)
	assert.Equal(t, []string{"carol@example.com"}, out.Result.UnmatchedDancers)

	// run record
	assert.True(t, out.Persisted)
	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, out.Run.ID, run.ID)
	assert.Equal(t, "test", run.Env)
	assert.Equal(t, uint64(42), run.Seed)
	assert.Equal(t, 3, run.Dancers)
	assert.Equal(t, 2, run.Matched)
	assert.Equal(t, 1, run.Unmatched())
	assert.Equal(t, 4, run.Proposals)

	assignments := store.assignments[run.ID]
	require.Len(t, assignments, 3)
	assert.Equal(t, "Tango", assignments[0].DanceName)
	assert.Equal(t, []string{"Tango", "Waltz"}, assignments[1].Choices)
	assert.False(t, assignments[2].Matched())

	dances := store.dances[run.ID]
	require.Len(t, dances, 2)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, dances[0].Rankings)
	assert.Equal(t, 0, dances[1].OpenSpots)

	// reports
	require.Len(t, out.ReportPaths, 2)
	assert.FileExists(t, filepath.Join(params.OutputDir, report.ByDancerFile))
	assert.FileExists(t, filepath.Join(params.OutputDir, report.ByDanceFile))

	metricsText, err := os.ReadFile(params.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), `dance_matcher_dancers_unmatched{env="test"} 1`)

	// published tabs
	byDancerTab, byDanceTab := ReportTabs(run)
	assert.Equal(t, []string{byDancerTab, byDanceTab}, out.PublishedTabs)
	assert.Equal(t, []string{byDancerTab, byDanceTab}, publisher.titles)
	assert.Equal(t, report.ByDancerHeader, publisher.tabs[byDancerTab][0])
	assert.Len(t, publisher.tabs[byDancerTab], 4)
	assert.Len(t, publisher.tabs[byDanceTab], 3)
}

func TestRunMatching_DryRun(t *testing.T) {
	store := newMockStore()
	publisher := &mockPublisher{}
	params := baseParams(t)
	params.DryRun = true

	out, err := RunMatching(context.Background(), threeDancerSource(), store, publisher, params, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, out.Persisted)
	assert.Empty(t, store.runs)
	assert.Empty(t, publisher.titles)
	assert.Len(t, out.ReportPaths, 2, "reports are still written on a dry run")
}

func TestRunMatching_NoStoreOrPublisher(t *testing.T) {
	params := baseParams(t)
	params.OutputDir = ""

	out, err := RunMatching(context.Background(), threeDancerSource(), nil, nil, params, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, out.Persisted)
	assert.Empty(t, out.ReportPaths)
	assert.Empty(t, out.PublishedTabs)
	assert.NotEmpty(t, out.Run.ID)
}

func TestRunMatching_InputError(t *testing.T) {
	src := threeDancerSource()
	src.dancers = append(src.dancers, []string{"2024-09-01", "dave@example.com", "Dave", "2025", "M", "M", "Salsa"})

	_, err := RunMatching(context.Background(), src, newMockStore(), nil, baseParams(t), zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrUnknownDance)
	assert.Contains(t, err.Error(), "failed to load input tables")
}

func TestRunMatching_StoreError(t *testing.T) {
	store := newMockStore()
	store.insertErr = errors.New("connection refused")

	_, err := RunMatching(context.Background(), threeDancerSource(), store, nil, baseParams(t), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save match run")
}

func TestRunMatching_PublishError(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("quota exceeded")}

	_, err := RunMatching(context.Background(), threeDancerSource(), nil, publisher, baseParams(t), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish by-dancer report")
}

func TestRunMatching_Fallback(t *testing.T) {
	// Carol only chose Waltz, which Bob wins, but Tango ranks her and has room
	src := threeDancerSource()
	src.quotas = [][]string{{"Tango", "2"}, {"Waltz", "1"}}
	src.dancers[1] = []string{"2024-09-01", "bob@example.com", "Bob", "2026", "M", "L", "Waltz"}
	src.scores = append(src.scores, []string{"Tango", "Carol", "carol@example.com", "2"})

	params := baseParams(t)
	params.Fallback = true

	out, err := RunMatching(context.Background(), src, nil, nil, params, zap.NewNop())
	require.NoError(t, err)

	dance, ok := out.Result.DanceOf("carol@example.com")
	require.True(t, ok)
	assert.Equal(t, "Tango", dance)
	assert.Empty(t, out.Result.UnmatchedDancers)
}

func TestNewRunRecords(t *testing.T) {
	params := baseParams(t)
	out, err := RunMatching(context.Background(), threeDancerSource(), nil, nil, params, zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2024, 9, 10, 18, 30, 0, 0, time.UTC)
	run, dances, assignments := NewRunRecords(out.Registry, out.Result, params, now)

	assert.NotEqual(t, out.Run.ID, run.ID, "every call mints a new run id")
	assert.Equal(t, now, run.CreatedAt)
	assert.Equal(t, 3, run.RejectTier)
	for _, d := range dances {
		assert.Equal(t, run.ID, d.RunID)
	}
	for i, a := range assignments {
		assert.Equal(t, run.ID, a.RunID)
		assert.Equal(t, i, a.Position)
	}

	byDancer, byDance := ReportTabs(run)
	assert.Equal(t, fmt.Sprintf("2024-09-10 18:30:00 %s by dancer", run.ID[:8]), byDancer)
	assert.Equal(t, fmt.Sprintf("2024-09-10 18:30:00 %s by dance", run.ID[:8]), byDance)
}

func TestReportTabs_SameMinuteRunsStayApart(t *testing.T) {
	created := time.Date(2024, 9, 10, 18, 30, 0, 0, time.UTC)
	first := db.MatchRun{ID: "0b7c3f9e-1111-4c1e-9d2a-000000000001", CreatedAt: created}
	second := db.MatchRun{ID: "5a2e8d41-2222-4c1e-9d2a-000000000002", CreatedAt: created}

	firstDancer, firstDance := ReportTabs(first)
	secondDancer, secondDance := ReportTabs(second)
	assert.NotEqual(t, firstDancer, secondDancer)
	assert.NotEqual(t, firstDance, secondDance)
	assert.Equal(t, "2024-09-10 18:30:00 0b7c3f9e by dancer", firstDancer)

	short, _ := ReportTabs(db.MatchRun{ID: "run", CreatedAt: created.Add(5 * time.Second)})
	assert.Equal(t, "2024-09-10 18:30:05 run by dancer", short)
}
