package tables

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jakechorley/dance-matcher/pkg/core/registry"
)

var (
	// ErrDuplicateKey is returned when two rows share a dance name or dancer key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidChoice is returned when a dancer's choices are unusable
	ErrInvalidChoice = errors.New("invalid choice")
)

// Source supplies the three raw input tables
type Source interface {
	Quotas(ctx context.Context) ([][]string, error)
	DanceScores(ctx context.Context) ([][]string, error)
	DancerRankings(ctx context.Context) ([][]string, error)
}

// Options control how raw tables are interpreted
type Options struct {
	// HeaderRows is the number of leading rows to skip in every table
	HeaderRows int

	// RejectTier is the tier value meaning outright rejection
	RejectTier int

	// MaxChoices caps the number of dances a dancer may rank
	MaxChoices int
}

// Load reads, parses and cross-checks the three tables and builds a registry
func Load(ctx context.Context, src Source, opts Options) (*registry.Registry, error) {
	rawQuotas, err := src.Quotas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotas: %w", err)
	}
	rawScores, err := src.DanceScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dance scores: %w", err)
	}
	rawDancers, err := src.DancerRankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dancer rankings: %w", err)
	}

	quotas, err := ParseQuotas(rawQuotas, opts.HeaderRows)
	if err != nil {
		return nil, err
	}
	scores, err := ParseScores(rawScores, opts.HeaderRows)
	if err != nil {
		return nil, err
	}
	dancers, err := ParseDancers(rawDancers, opts.HeaderRows)
	if err != nil {
		return nil, err
	}

	return BuildRegistry(quotas, scores, dancers, opts)
}

// BuildRegistry constructs a registry from parsed rows. Any inconsistency between the
// tables is a fatal input error naming the offending row.
func BuildRegistry(quotas []QuotaRow, scores []ScoreRow, dancers []DancerRow, opts Options) (*registry.Registry, error) {
	rejectTier := opts.RejectTier
	if rejectTier == 0 {
		rejectTier = registry.DefaultRejectTier
	}
	reg := registry.New(rejectTier)

	for _, q := range quotas {
		if reg.Dances.Contains(q.Dance) {
			return nil, fmt.Errorf("quotas row %d: %w: dance %q", q.Line, ErrDuplicateKey, q.Dance)
		}
		reg.AddDance(q.Dance, q.Quota)
	}

	for _, d := range dancers {
		key := registry.NormalizeKey(d.Email)
		if reg.Dancers.Contains(key) {
			return nil, fmt.Errorf("dancer rankings row %d: %w: dancer %q", d.Line, ErrDuplicateKey, key)
		}
		if err := checkChoices(d, reg, opts.MaxChoices); err != nil {
			return nil, fmt.Errorf("dancer rankings row %d: %w", d.Line, err)
		}

		dancer := registry.NewDancer(key, d.Name, d.Choices)
		dancer.Timestamp = d.Timestamp
		dancer.Year = d.Year
		dancer.Gender = d.Gender
		dancer.TShirtSize = d.TShirtSize
		dancer.NonAuditions = d.NonAuditions
		reg.AddDancer(dancer)
	}

	for _, s := range scores {
		if err := reg.Score(s.Dance, s.Email, s.Score); err != nil {
			return nil, fmt.Errorf("dance scores row %d: %w", s.Line, err)
		}
	}

	return reg, nil
}

func checkChoices(d DancerRow, reg *registry.Registry, maxChoices int) error {
	if maxChoices > 0 && len(d.Choices) > maxChoices {
		return fmt.Errorf("%w: %d choices, at most %d allowed", ErrInvalidChoice, len(d.Choices), maxChoices)
	}
	for i, choice := range d.Choices {
		if !reg.Dances.Contains(choice) {
			return fmt.Errorf("%w: %q", registry.ErrUnknownDance, choice)
		}
		if slices.Contains(d.Choices[:i], choice) {
			return fmt.Errorf("%w: %q chosen more than once", ErrInvalidChoice, choice)
		}
	}
	return nil
}
