package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/db"
)

// ListRuns returns every persisted run, newest first
func ListRuns(ctx context.Context, store db.RunReader, logger *zap.Logger) ([]db.MatchRun, error) {
	runs, err := store.GetMatchRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match runs: %w", err)
	}

	slices.SortStableFunc(runs, func(a, b db.MatchRun) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	logger.Debug("Fetched match runs", zap.Int("count", len(runs)))
	return runs, nil
}
