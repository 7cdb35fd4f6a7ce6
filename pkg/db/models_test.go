package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestRun(t *testing.T) {
	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	runs := []MatchRun{
		{ID: "run-1", CreatedAt: base},
		{ID: "run-3", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "run-2", CreatedAt: base.Add(time.Hour)},
	}

	latest, err := LatestRun(runs)
	require.NoError(t, err)
	assert.Equal(t, "run-3", latest.ID)

	_, err = LatestRun(nil)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestFindRun(t *testing.T) {
	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	runs := []MatchRun{
		{ID: "run-1", CreatedAt: base},
		{ID: "run-2", CreatedAt: base.Add(time.Hour)},
	}

	run, err := FindRun(runs, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)

	run, err = FindRun(runs, "")
	require.NoError(t, err)
	assert.Equal(t, "run-2", run.ID)

	_, err = FindRun(runs, "run-9")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMatchRun_Unmatched(t *testing.T) {
	assert.Equal(t, 3, MatchRun{Dancers: 10, Matched: 7}.Unmatched())
}

func TestDancerAssignment_Matched(t *testing.T) {
	assert.True(t, DancerAssignment{DanceName: "Tango"}.Matched())
	assert.False(t, DancerAssignment{}.Matched())
}
