package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/db"
)

func TestListRuns_NewestFirst(t *testing.T) {
	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	store := newMockStore()
	store.runs = []db.MatchRun{
		{ID: "run-2", CreatedAt: base.Add(time.Hour)},
		{ID: "run-1", CreatedAt: base},
		{ID: "run-3", CreatedAt: base.Add(2 * time.Hour)},
	}

	runs, err := ListRuns(context.Background(), store, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, runs, 3)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, "run-1", runs[2].ID)
}

func TestListRuns_Empty(t *testing.T) {
	runs, err := ListRuns(context.Background(), newMockStore(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListRuns_StoreError(t *testing.T) {
	store := newMockStore()
	store.getRunsErr = errors.New("connection reset")

	_, err := ListRuns(context.Background(), store, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch match runs")
}
