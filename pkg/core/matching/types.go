package matching

import (
	"errors"

	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/core/ranking"
)

// ErrUnresolved is returned when matching is attempted on a dance whose rankings are not fixed
var ErrUnresolved = errors.New("dance rankings not resolved")

// Options configures a matching run
type Options struct {
	// Seed fixes the tie-break permutation. Nil draws a fresh seed for the run.
	Seed *uint64

	// TieBreaker overrides the seeded random tie breaker (Seed is then ignored)
	TieBreaker ranking.TieBreaker

	// FallbackToAnyCapacity lets a dancer keep proposing, after their explicit choices,
	// to every other dance that ranked them
	FallbackToAnyCapacity bool

	// Logger receives debug output; nil disables logging
	Logger *zap.Logger
}

// Result is the outcome of a matching run.
// Per-dance matchings and unmatched lists are also written back onto the registry records.
type Result struct {
	// Seed used for tie-breaking (zero when a custom TieBreaker was supplied)
	Seed uint64

	// Assignments maps dancer key to the dance they were matched to
	Assignments map[string]string

	// Matchings maps dance name to its matched dancer keys, in ranking order
	Matchings map[string][]string

	// Preferences maps dancer key to the proposal order used during the run
	Preferences map[string][]string

	// UnmatchedDancers are dancer keys with no assignment, in registry order
	UnmatchedDancers []string

	// UnderfilledDances are dance names with fewer matchings than quota, in registry order
	UnderfilledDances []string

	// Proposals counts every proposal attempt, including immediate rejections
	Proposals int

	// Rejections counts proposals to dances that did not rank the proposer
	Rejections int

	// Displacements counts held dancers bumped by a better-ranked proposer
	Displacements int

	// PreferenceSlots is the sum of all dancers' preference-list lengths
	PreferenceSlots int
}

// MatchedCount returns the number of dancers with an assignment
func (r *Result) MatchedCount() int {
	return len(r.Assignments)
}

// DanceOf returns the dance a dancer was matched to
func (r *Result) DanceOf(dancerKey string) (string, bool) {
	dance, ok := r.Assignments[dancerKey]
	return dance, ok
}
