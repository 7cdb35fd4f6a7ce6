package db

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNoRuns is returned when a run is requested but none have been persisted
var ErrNoRuns = errors.New("no match runs found")

// MatchRun is one persisted execution of the matcher
type MatchRun struct {
	ID         string
	Env        string
	Seed       uint64
	Source     string
	RejectTier int
	Fallback   bool
	Dancers    int
	Matched    int
	Proposals  int
	CreatedAt  time.Time
}

// Unmatched is the number of dancers left without a dance
func (r MatchRun) Unmatched() int {
	return r.Dancers - r.Matched
}

// DanceResult is the outcome for one dance of a run
type DanceResult struct {
	RunID     string
	Position  int
	DanceName string
	Quota     int
	Matchings []string
	Rankings  []string
	OpenSpots int
}

// DancerAssignment is the outcome for one dancer of a run. DanceName is empty when the
// dancer was not matched.
type DancerAssignment struct {
	RunID      string
	Position   int
	DancerKey  string
	DancerName string
	Choices    []string
	DanceName  string
	NotifiedAt *time.Time
}

// Matched reports whether the dancer received a dance
func (a DancerAssignment) Matched() bool {
	return a.DanceName != ""
}

// LatestRun returns the most recently created run
func LatestRun(runs []MatchRun) (MatchRun, error) {
	if len(runs) == 0 {
		return MatchRun{}, ErrNoRuns
	}
	return slices.MaxFunc(runs, func(a, b MatchRun) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	}), nil
}

// FindRun returns the run with the given ID, or the latest run when id is empty
func FindRun(runs []MatchRun, id string) (MatchRun, error) {
	if id == "" {
		return LatestRun(runs)
	}
	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
	}
	return MatchRun{}, fmt.Errorf("match run %s not found", id)
}
