package matching

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/core/ranking"
	"github.com/jakechorley/dance-matcher/pkg/core/registry"
)

// holdSet tracks the dancers a dance is tentatively holding, best ranked first
type holdSet struct {
	dance *registry.Dance
	held  []string
}

func (h *holdSet) full() bool {
	return len(h.held) >= h.dance.Quota
}

// insert places a dancer in ranking order
func (h *holdSet) insert(key string, pos int) {
	idx, _ := slices.BinarySearchFunc(h.held, pos, func(held string, target int) int {
		p, _ := h.dance.Position(held)
		return p - target
	})
	h.held = slices.Insert(h.held, idx, key)
}

// popWorst removes and returns the lowest ranked held dancer
func (h *holdSet) popWorst() string {
	worst := h.held[len(h.held)-1]
	h.held = h.held[:len(h.held)-1]
	return worst
}

func (h *holdSet) worstPosition() int {
	p, _ := h.dance.Position(h.held[len(h.held)-1])
	return p
}

// Run resolves every dance still building and then matches dancers to dances.
// This is the engine entry point.
func Run(reg *registry.Registry, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tb := opts.TieBreaker
	var seed uint64
	if tb == nil {
		if opts.Seed != nil {
			seed = *opts.Seed
		} else {
			seed = ranking.NewSeed()
		}
		tb = ranking.NewRandomTieBreaker(seed)
	}

	resolved := ranking.ResolveAll(reg.Dances, tb)
	logger.Debug("Resolved dance rankings",
		zap.Int("resolved", resolved),
		zap.Uint64("seed", seed))

	result, err := Match(reg, opts.FallbackToAnyCapacity, logger)
	if err != nil {
		return nil, err
	}
	result.Seed = seed
	return result, nil
}

// Match runs dancer-proposing deferred acceptance over resolved dances.
// Results are written back onto the registry's dancer and dance records.
func Match(reg *registry.Registry, fallback bool, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	holds := make(map[string]*holdSet, reg.Dances.Len())
	for _, dance := range reg.Dances.All() {
		if !dance.IsResolved() {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, dance.Name)
		}
		holds[dance.Name] = &holdSet{dance: dance}
	}

	result := &Result{
		Assignments: make(map[string]string),
		Matchings:   make(map[string][]string, reg.Dances.Len()),
		Preferences: make(map[string][]string, reg.Dancers.Len()),
	}

	dancers := reg.Dancers.All()
	free := make([]string, 0, len(dancers))
	for _, dancer := range dancers {
		dancer.Dance = ""
		prefs := ranking.DancerPreferences(dancer, reg.Dances, fallback)
		result.Preferences[dancer.Key] = prefs
		result.PreferenceSlots += len(prefs)
		free = append(free, dancer.Key)
	}

	next := make(map[string]int, len(dancers))

	for len(free) > 0 {
		// Pop first free dancer
		key := free[0]
		free = free[1:]
		prefs := result.Preferences[key]

		for next[key] < len(prefs) {
			name := prefs[next[key]]
			next[key]++
			result.Proposals++

			hs, ok := holds[name]
			if !ok {
				result.Rejections++
				continue
			}

			pos, ranked := hs.dance.Position(key)
			if !ranked {
				result.Rejections++
				continue
			}

			if hs.dance.Quota <= 0 {
				continue
			}

			if !hs.full() {
				hs.insert(key, pos)
				break
			}

			if pos < hs.worstPosition() {
				displaced := hs.popWorst()
				hs.insert(key, pos)
				result.Displacements++
				free = append(free, displaced)
				logger.Debug("Dancer displaced",
					zap.String("dance", name),
					zap.String("displaced", displaced),
					zap.String("by", key))
				break
			}
		}
	}

	buildResult(reg, holds, result)

	logger.Debug("Matching complete",
		zap.Int("proposals", result.Proposals),
		zap.Int("rejections", result.Rejections),
		zap.Int("displacements", result.Displacements),
		zap.Int("matched", result.MatchedCount()),
		zap.Int("unmatched", len(result.UnmatchedDancers)))

	return result, nil
}

// buildResult writes final hold sets back onto the registry and fills the result report
func buildResult(reg *registry.Registry, holds map[string]*holdSet, result *Result) {
	for _, dance := range reg.Dances.All() {
		hs := holds[dance.Name]
		dance.SetMatchings(hs.held)
		result.Matchings[dance.Name] = slices.Clone(dance.Matchings)

		for _, key := range dance.Matchings {
			if dancer, ok := reg.Dancers.Get(key); ok {
				dancer.Dance = dance.Name
			}
			result.Assignments[key] = dance.Name
		}

		if len(dance.Matchings) < dance.Quota {
			result.UnderfilledDances = append(result.UnderfilledDances, dance.Name)
		}
	}

	result.UnmatchedDancers = []string{}
	for _, dancer := range reg.Dancers.All() {
		if !dancer.IsMatched() {
			result.UnmatchedDancers = append(result.UnmatchedDancers, dancer.Key)
		}
	}
}
