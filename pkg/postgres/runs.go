package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/dance-matcher/pkg/db"
)

// InsertMatchRun stores the run, its dance results and dancer assignments in one transaction
func (d *DB) InsertMatchRun(ctx context.Context, run *db.MatchRun, dances []db.DanceResult, assignments []db.DancerAssignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// seed is stored bit for bit in a signed BIGINT
	_, err = tx.Exec(ctx, `
		INSERT INTO match_run (id, env, seed, source, reject_tier, fallback, dancers, matched, proposals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Env, int64(run.Seed), run.Source, run.RejectTier, run.Fallback,
		run.Dancers, run.Matched, run.Proposals, run.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert match run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, r := range dances {
		batch.Queue(`
			INSERT INTO dance_result (run_id, position, dance_name, quota, matchings, rankings, open_spots)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, r.Position, r.DanceName, r.Quota, nonNil(r.Matchings), nonNil(r.Rankings), r.OpenSpots)
	}
	for _, a := range assignments {
		var danceName *string
		if a.DanceName != "" {
			danceName = &a.DanceName
		}
		batch.Queue(`
			INSERT INTO dancer_assignment (run_id, position, dancer_key, dancer_name, choices, dance_name)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, run.ID, a.Position, a.DancerKey, a.DancerName, nonNil(a.Choices), danceName)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert run rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMatchRuns returns every run, newest first
func (d *DB) GetMatchRuns(ctx context.Context) ([]db.MatchRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, env, seed, source, reject_tier, fallback, dancers, matched, proposals, created_at
		FROM match_run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match runs: %w", err)
	}
	defer rows.Close()

	var runs []db.MatchRun
	for rows.Next() {
		var r db.MatchRun
		var seed int64
		if err := rows.Scan(&r.ID, &r.Env, &seed, &r.Source, &r.RejectTier, &r.Fallback,
			&r.Dancers, &r.Matched, &r.Proposals, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match runs: %w", err)
	}
	return runs, nil
}

// GetDanceResults returns the dance rows of a run in registry order
func (d *DB) GetDanceResults(ctx context.Context, runID string) ([]db.DanceResult, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id, position, dance_name, quota, matchings, rankings, open_spots
		FROM dance_result
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dance results: %w", err)
	}
	defer rows.Close()

	var results []db.DanceResult
	for rows.Next() {
		var r db.DanceResult
		if err := rows.Scan(&r.RunID, &r.Position, &r.DanceName, &r.Quota, &r.Matchings, &r.Rankings, &r.OpenSpots); err != nil {
			return nil, fmt.Errorf("failed to scan dance result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dance results: %w", err)
	}
	return results, nil
}

// GetDancerAssignments returns the dancer rows of a run in registry order
func (d *DB) GetDancerAssignments(ctx context.Context, runID string) ([]db.DancerAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id, position, dancer_key, dancer_name, choices, dance_name, notified_at
		FROM dancer_assignment
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dancer assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.DancerAssignment
	for rows.Next() {
		var a db.DancerAssignment
		var danceName *string
		if err := rows.Scan(&a.RunID, &a.Position, &a.DancerKey, &a.DancerName, &a.Choices, &danceName, &a.NotifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dancer assignment: %w", err)
		}
		if danceName != nil {
			a.DanceName = *danceName
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dancer assignments: %w", err)
	}
	return assignments, nil
}

// MarkNotified records when the given dancers were emailed their outcome
func (d *DB) MarkNotified(ctx context.Context, runID string, dancerKeys []string, at time.Time) error {
	if len(dancerKeys) == 0 {
		return nil
	}

	_, err := d.pool.Exec(ctx, `
		UPDATE dancer_assignment SET notified_at = $3
		WHERE run_id = $1 AND dancer_key = ANY($2)
	`, runID, dancerKeys, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark dancers notified: %w", err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
