package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/internal/config"
	"github.com/jakechorley/dance-matcher/pkg/db"
)

// ErrNoTemplates is returned when notifications are requested without configured templates
var ErrNoTemplates = errors.New("notification templates not configured")

// NotificationData is the value notification templates are executed against
type NotificationData struct {
	Name    string
	Email   string
	Dance   string
	Choices string
	FormURL string
}

// Notification is a rendered email for one dancer
type Notification struct {
	DancerKey string
	Name      string
	Dance     string
	Subject   string
	Body      string
}

// FailedNotification records a dancer whose email could not be sent
type FailedNotification struct {
	DancerKey string
	Name      string
	Error     string
}

// NotifyDancersResult summarises a notification pass
type NotifyDancersResult struct {
	Run     db.MatchRun
	Sent    []Notification
	Failed  []FailedNotification
	Skipped int
}

// Templates are parsed notification templates
type Templates struct {
	subject   *template.Template
	matched   *template.Template
	unmatched *template.Template
	formURL   string
}

// ParseTemplates parses the configured subject and body templates
func ParseTemplates(cfg *config.Notification) (*Templates, error) {
	if cfg == nil {
		return nil, ErrNoTemplates
	}

	parse := func(name, text string) (*template.Template, error) {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		return tmpl, nil
	}

	subject, err := parse("subject", cfg.Subject)
	if err != nil {
		return nil, err
	}
	matched, err := parse("matched", cfg.MatchedBody)
	if err != nil {
		return nil, err
	}
	unmatched, err := parse("unmatched", cfg.UnmatchedBody)
	if err != nil {
		return nil, err
	}

	return &Templates{subject: subject, matched: matched, unmatched: unmatched, formURL: cfg.FormURL}, nil
}

// Render builds the email for one assignment
func (t *Templates) Render(a db.DancerAssignment) (Notification, error) {
	data := NotificationData{
		Name:    a.DancerName,
		Email:   a.DancerKey,
		Dance:   a.DanceName,
		Choices: strings.Join(a.Choices, ", "),
		FormURL: t.formURL,
	}

	body := t.unmatched
	if a.Matched() {
		body = t.matched
	}

	var subject, text strings.Builder
	if err := t.subject.Execute(&subject, data); err != nil {
		return Notification{}, fmt.Errorf("failed to render subject for %s: %w", a.DancerKey, err)
	}
	if err := body.Execute(&text, data); err != nil {
		return Notification{}, fmt.Errorf("failed to render body for %s: %w", a.DancerKey, err)
	}

	return Notification{
		DancerKey: a.DancerKey,
		Name:      a.DancerName,
		Dance:     a.DanceName,
		Subject:   strings.TrimSpace(subject.String()),
		Body:      text.String(),
	}, nil
}

// NotifyDancers emails every dancer of a run their outcome. runID "" selects the latest
// run. Dancers already notified are skipped. A dry run renders without sending.
func NotifyDancers(
	ctx context.Context,
	store NotifyStore,
	sender EmailSender,
	templates *Templates,
	runID string,
	dryRun bool,
	logger *zap.Logger,
) (*NotifyDancersResult, error) {
	runs, err := store.GetMatchRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match runs: %w", err)
	}

	run, err := db.FindRun(runs, runID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Notifying dancers", zap.String("run_id", run.ID), zap.Bool("dry_run", dryRun))

	assignments, err := store.GetDancerAssignments(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dancer assignments: %w", err)
	}

	result := &NotifyDancersResult{Run: run}

	// Render everything up front so a template error aborts before any email is sent
	var pending []Notification
	for _, a := range assignments {
		if a.NotifiedAt != nil {
			result.Skipped++
			continue
		}

		n, err := templates.Render(a)
		if err != nil {
			return nil, err
		}
		pending = append(pending, n)
	}

	var notified []string
	for _, n := range pending {
		if !dryRun {
			if err := sender.SendEmail(ctx, n.DancerKey, n.Subject, n.Body); err != nil {
				logger.Warn("Failed to send notification", zap.String("dancer", n.DancerKey), zap.Error(err))
				result.Failed = append(result.Failed, FailedNotification{DancerKey: n.DancerKey, Name: n.Name, Error: err.Error()})
				continue
			}
			notified = append(notified, n.DancerKey)
		}
		result.Sent = append(result.Sent, n)
	}

	if len(notified) > 0 {
		if err := store.MarkNotified(ctx, run.ID, notified, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to record notifications: %w", err)
		}
	}

	logger.Info("Notifications complete",
		zap.String("run_id", run.ID),
		zap.Int("sent", len(result.Sent)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped))

	return result, nil
}
