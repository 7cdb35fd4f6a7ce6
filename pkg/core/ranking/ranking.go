package ranking

import (
	"math/rand/v2"
	"slices"

	"github.com/jakechorley/dance-matcher/pkg/core/registry"
)

// TieBreaker orders dancers that a dance placed in the same tier
type TieBreaker interface {
	// Shuffle permutes keys in place
	Shuffle(keys []string)
}

// RandomTieBreaker breaks ties with a uniform random permutation from a seeded source
type RandomTieBreaker struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandomTieBreaker creates a tie breaker whose permutations are reproducible for the seed
func NewRandomTieBreaker(seed uint64) *RandomTieBreaker {
	return &RandomTieBreaker{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewSeed draws a fresh seed for a production run
func NewSeed() uint64 {
	return rand.Uint64()
}

// Seed returns the seed the tie breaker was created with
func (t *RandomTieBreaker) Seed() uint64 {
	return t.seed
}

// Shuffle permutes keys uniformly at random
func (t *RandomTieBreaker) Shuffle(keys []string) {
	t.rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}

// Resolve shuffles each eligible tier independently, concatenates the tiers from most to
// least preferred and seals the result as the dance's rankings.
// Reject-tier dancers never appear in the output. Panics if the dance is already resolved.
func Resolve(dance *registry.Dance, tb TieBreaker) []string {
	order := make([]string, 0, len(dance.Scores))
	for _, tier := range dance.Tiers() {
		tb.Shuffle(tier)
		order = append(order, tier...)
	}

	dance.Seal(order)
	return order
}

// ResolveAll resolves every dance that is still building, in registry order
func ResolveAll(dances *registry.Dances, tb TieBreaker) int {
	resolved := 0
	for _, dance := range dances.All() {
		if dance.IsResolved() {
			continue
		}
		Resolve(dance, tb)
		resolved++
	}
	return resolved
}

// DancerPreferences returns the order in which a dancer proposes to dances.
// Explicit choices come first, verbatim. With fallback enabled, every other dance that
// ranked the dancer follows, best tier first and then registry order.
func DancerPreferences(dancer *registry.Dancer, dances *registry.Dances, fallback bool) []string {
	prefs := slices.Clone(dancer.Choices)
	if !fallback {
		return prefs
	}

	type candidate struct {
		name  string
		tier  int
		index int
	}

	var extras []candidate
	for i, dance := range dances.All() {
		if dancer.Preffed(dance.Name) {
			continue
		}
		if _, ranked := dance.Position(dancer.Key); !ranked {
			continue
		}
		extras = append(extras, candidate{name: dance.Name, tier: dancer.Ratings[dance.Name], index: i})
	}

	slices.SortFunc(extras, func(a, b candidate) int {
		if a.tier != b.tier {
			return a.tier - b.tier
		}
		return a.index - b.index
	})

	for _, c := range extras {
		prefs = append(prefs, c.name)
	}
	return prefs
}
