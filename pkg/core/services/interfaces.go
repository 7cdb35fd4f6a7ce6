package services

import (
	"context"
	"time"

	"github.com/jakechorley/dance-matcher/pkg/db"
)

// MatchRunStore persists completed runs
type MatchRunStore interface {
	InsertMatchRun(ctx context.Context, run *db.MatchRun, dances []db.DanceResult, assignments []db.DancerAssignment) error
}

// NotifyStore reads a persisted run and records which dancers were emailed
type NotifyStore interface {
	db.RunReader
	MarkNotified(ctx context.Context, runID string, dancerKeys []string, at time.Time) error
}

// ResultPublisher writes a report table to a spreadsheet tab
type ResultPublisher interface {
	PublishTable(ctx context.Context, spreadsheetID, tab string, header []string, rows [][]string) error
}

// EmailSender sends a plain text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}
