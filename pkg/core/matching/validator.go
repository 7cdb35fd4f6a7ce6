package matching

import (
	"fmt"

	"github.com/jakechorley/dance-matcher/pkg/core/registry"
)

// ValidationError represents an invariant violation found in a finished matching
type ValidationError struct {
	CheckName   string
	DanceName   string
	DancerKey   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.CheckName, e.Description)
}

// Check verifies one property of a finished matching
type Check interface {
	// Name returns a human-readable identifier for this check
	Name() string

	// Validate returns every violation found (empty if valid)
	Validate(reg *registry.Registry, result *Result) []ValidationError
}

// DefaultChecks returns every built-in check
func DefaultChecks() []Check {
	return []Check{
		QuotaCheck{},
		PartitionCheck{},
		RejectTierCheck{},
		SingleAssignmentCheck{},
		StabilityCheck{},
	}
}

// Validate runs the checks against a finished matching.
// An empty slice indicates the matching is valid.
func Validate(reg *registry.Registry, result *Result, checks ...Check) []ValidationError {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}

	var errs []ValidationError
	for _, check := range checks {
		errs = append(errs, check.Validate(reg, result)...)
	}
	return errs
}

// QuotaCheck verifies no dance holds more dancers than its quota
type QuotaCheck struct{}

func (QuotaCheck) Name() string { return "Quota" }

func (c QuotaCheck) Validate(reg *registry.Registry, _ *Result) []ValidationError {
	var errs []ValidationError
	for _, dance := range reg.Dances.All() {
		if len(dance.Matchings) > dance.Quota {
			errs = append(errs, ValidationError{
				CheckName:   c.Name(),
				DanceName:   dance.Name,
				Description: fmt.Sprintf("%d dancers matched, quota is %d", len(dance.Matchings), dance.Quota),
			})
		}
	}
	return errs
}

// PartitionCheck verifies matchings and unmatched split the rankings exactly
type PartitionCheck struct{}

func (PartitionCheck) Name() string { return "Partition" }

func (c PartitionCheck) Validate(reg *registry.Registry, _ *Result) []ValidationError {
	var errs []ValidationError
	for _, dance := range reg.Dances.All() {
		seen := make(map[string]int)
		for _, key := range dance.Matchings {
			seen[key]++
		}
		for _, key := range dance.Unmatched {
			seen[key]++
		}

		rankings := dance.Rankings()
		for _, key := range rankings {
			if seen[key] != 1 {
				errs = append(errs, ValidationError{
					CheckName:   c.Name(),
					DanceName:   dance.Name,
					DancerKey:   key,
					Description: fmt.Sprintf("ranked dancer %s appears %d times across matchings and unmatched", key, seen[key]),
				})
			}
			delete(seen, key)
		}
		for key := range seen {
			errs = append(errs, ValidationError{
				CheckName:   c.Name(),
				DanceName:   dance.Name,
				DancerKey:   key,
				Description: fmt.Sprintf("dancer %s is listed but not ranked", key),
			})
		}
	}
	return errs
}

// RejectTierCheck verifies reject-tier dancers never appear in a dance's results
type RejectTierCheck struct{}

func (RejectTierCheck) Name() string { return "RejectTier" }

func (c RejectTierCheck) Validate(reg *registry.Registry, _ *Result) []ValidationError {
	var errs []ValidationError
	for _, dance := range reg.Dances.All() {
		for _, key := range dance.Reds() {
			if _, ranked := dance.Position(key); ranked {
				errs = append(errs, ValidationError{
					CheckName:   c.Name(),
					DanceName:   dance.Name,
					DancerKey:   key,
					Description: fmt.Sprintf("rejected dancer %s is ranked", key),
				})
			}
		}
	}
	return errs
}

// SingleAssignmentCheck verifies each dancer is matched to at most one dance and that
// dancer records agree with dance records
type SingleAssignmentCheck struct{}

func (SingleAssignmentCheck) Name() string { return "SingleAssignment" }

func (c SingleAssignmentCheck) Validate(reg *registry.Registry, _ *Result) []ValidationError {
	var errs []ValidationError
	assigned := make(map[string]string)
	for _, dance := range reg.Dances.All() {
		for _, key := range dance.Matchings {
			if other, dup := assigned[key]; dup {
				errs = append(errs, ValidationError{
					CheckName:   c.Name(),
					DanceName:   dance.Name,
					DancerKey:   key,
					Description: fmt.Sprintf("%s may have been assigned to more than one dance (%s and %s)", key, other, dance.Name),
				})
				continue
			}
			if !reg.Dancers.Contains(key) {
				errs = append(errs, ValidationError{
					CheckName:   c.Name(),
					DanceName:   dance.Name,
					DancerKey:   key,
					Description: fmt.Sprintf("%s matched %s but is not a registered dancer", dance.Name, key),
				})
			}
			assigned[key] = dance.Name
		}
	}

	for _, dancer := range reg.Dancers.All() {
		if dancer.Dance != assigned[dancer.Key] {
			errs = append(errs, ValidationError{
				CheckName:   c.Name(),
				DanceName:   dancer.Dance,
				DancerKey:   dancer.Key,
				Description: fmt.Sprintf("dancer %s records %q but dances record %q", dancer.Key, dancer.Dance, assigned[dancer.Key]),
			})
		}
	}
	return errs
}

// StabilityCheck verifies there is no blocking pair: a dancer and a dance they prefer to
// their outcome, where the dance ranks them and has room or holds someone ranked lower
type StabilityCheck struct{}

func (StabilityCheck) Name() string { return "Stability" }

func (c StabilityCheck) Validate(reg *registry.Registry, result *Result) []ValidationError {
	var errs []ValidationError
	for _, dancer := range reg.Dancers.All() {
		for _, name := range result.Preferences[dancer.Key] {
			if name == dancer.Dance {
				break
			}

			dance, ok := reg.Dances.Get(name)
			if !ok {
				continue
			}
			pos, ranked := dance.Position(dancer.Key)
			if !ranked || dance.Quota <= 0 {
				continue
			}

			blocking := len(dance.Matchings) < dance.Quota
			if !blocking && len(dance.Matchings) > 0 {
				worst, _ := dance.Position(dance.Matchings[len(dance.Matchings)-1])
				blocking = pos < worst
			}

			if blocking {
				errs = append(errs, ValidationError{
					CheckName:   c.Name(),
					DanceName:   dance.Name,
					DancerKey:   dancer.Key,
					Description: fmt.Sprintf("%s and %s would both prefer each other", dancer.Key, dance.Name),
				})
			}
		}
	}
	return errs
}
