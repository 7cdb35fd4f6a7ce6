package db

import (
	"context"
	"time"
)

// RunReader reads persisted match runs
type RunReader interface {
	GetMatchRuns(ctx context.Context) ([]MatchRun, error)
	GetDanceResults(ctx context.Context, runID string) ([]DanceResult, error)
	GetDancerAssignments(ctx context.Context, runID string) ([]DancerAssignment, error)
}

// Database defines every persistence operation. postgres.DB implements it.
type Database interface {
	RunReader
	// InsertMatchRun stores a run with its per-dance and per-dancer rows atomically
	InsertMatchRun(ctx context.Context, run *MatchRun, dances []DanceResult, assignments []DancerAssignment) error
	MarkNotified(ctx context.Context, runID string, dancerKeys []string, at time.Time) error
}
