package registry

import (
	"fmt"
	"slices"
)

// DefaultRejectTier is the tier value reserved for outright rejection
const DefaultRejectTier = 3

// phase is the lifecycle state of a dance. A dance starts in buildingPhase and
// moves to resolvedPhase exactly once, through Seal.
type phase interface {
	String() string
}

type buildingPhase struct{}

func (buildingPhase) String() string { return "building" }

type resolvedPhase struct {
	rankings []string
	position map[string]int
}

func (resolvedPhase) String() string { return "resolved" }

// Dance represents a capacity-limited activity that ranks its applicants in tiers
type Dance struct {
	// Name uniquely identifies the dance
	Name string

	// Quota is the maximum number of dancers the dance accepts
	Quota int

	// Scores maps dancer key to the tier this dance assigned them
	Scores map[string]int

	// Matchings are the dancers assigned to this dance, in ranking order
	Matchings []string

	// Unmatched are ranked dancers who were not assigned, in ranking order
	Unmatched []string

	rejectTier int
	tiers      [][]string
	reds       []string
	phase      phase
}

// NewDance creates a dance in the building phase.
// Tiers 0..rejectTier-1 are eligible; rejectTier marks outright rejection.
func NewDance(name string, quota int, rejectTier int) *Dance {
	if rejectTier < 1 {
		panic(fmt.Sprintf("dance %q: reject tier must be at least 1, got %d", name, rejectTier))
	}
	return &Dance{
		Name:       name,
		Quota:      quota,
		Scores:     make(map[string]int),
		rejectTier: rejectTier,
		tiers:      make([][]string, rejectTier),
		phase:      buildingPhase{},
	}
}

// RejectTier returns the tier value this dance treats as rejection
func (d *Dance) RejectTier() int {
	return d.rejectTier
}

// Phase returns the name of the dance's lifecycle phase
func (d *Dance) Phase() string {
	return d.phase.String()
}

// IsResolved reports whether the dance's rankings have been fixed
func (d *Dance) IsResolved() bool {
	_, ok := d.phase.(resolvedPhase)
	return ok
}

// AddApplicant registers a dancer with the given tier and records the rating on the dancer.
// Panics if the dance is already resolved or the tier is outside 0..RejectTier.
func (d *Dance) AddApplicant(dancer *Dancer, tier int) {
	if d.IsResolved() {
		panic(fmt.Sprintf("dance %q: cannot add dancers after rankings are resolved", d.Name))
	}
	if tier < 0 || tier > d.rejectTier {
		panic(fmt.Sprintf("dance %q: tier %d out of range 0..%d", d.Name, tier, d.rejectTier))
	}

	if tier == d.rejectTier {
		d.reds = append(d.reds, dancer.Key)
	} else {
		d.tiers[tier] = append(d.tiers[tier], dancer.Key)
	}

	d.Scores[dancer.Key] = tier
	dancer.Ratings[d.Name] = tier
}

// Tiers returns a copy of the eligible tier buckets, most preferred first
func (d *Dance) Tiers() [][]string {
	out := make([][]string, len(d.tiers))
	for i, bucket := range d.tiers {
		out[i] = slices.Clone(bucket)
	}
	return out
}

// Reds returns the dancers placed in the reject tier
func (d *Dance) Reds() []string {
	return slices.Clone(d.reds)
}

// Seal fixes the dance's total preference order and moves it to the resolved phase.
// order must be a permutation of every eligible applicant. Panics if the dance is
// already resolved or order is not such a permutation.
func (d *Dance) Seal(order []string) {
	if d.IsResolved() {
		panic(fmt.Sprintf("dance %q: rankings already resolved", d.Name))
	}

	eligible := 0
	for _, bucket := range d.tiers {
		eligible += len(bucket)
	}
	if len(order) != eligible {
		panic(fmt.Sprintf("dance %q: ranking has %d dancers, expected %d", d.Name, len(order), eligible))
	}

	position := make(map[string]int, len(order))
	for i, key := range order {
		tier, scored := d.Scores[key]
		if !scored || tier == d.rejectTier {
			panic(fmt.Sprintf("dance %q: %q is not an eligible applicant", d.Name, key))
		}
		if _, dup := position[key]; dup {
			panic(fmt.Sprintf("dance %q: %q ranked twice", d.Name, key))
		}
		position[key] = i
	}

	d.phase = resolvedPhase{
		rankings: slices.Clone(order),
		position: position,
	}
}

// Rankings returns the resolved total order, or nil while the dance is still building
func (d *Dance) Rankings() []string {
	p, ok := d.phase.(resolvedPhase)
	if !ok {
		return nil
	}
	return slices.Clone(p.rankings)
}

// Position returns the dancer's index in the resolved rankings.
// The second value is false when the dancer is not ranked or the dance is unresolved.
func (d *Dance) Position(dancerKey string) (int, bool) {
	p, ok := d.phase.(resolvedPhase)
	if !ok {
		return 0, false
	}
	pos, ranked := p.position[dancerKey]
	return pos, ranked
}

// SetMatchings records the final matchings and derives Unmatched as rankings minus matchings.
// Panics if the dance is unresolved or a matched dancer is not ranked.
func (d *Dance) SetMatchings(keys []string) {
	p, ok := d.phase.(resolvedPhase)
	if !ok {
		panic(fmt.Sprintf("dance %q: cannot set matchings before rankings are resolved", d.Name))
	}

	matched := make(map[string]bool, len(keys))
	for _, key := range keys {
		if _, ranked := p.position[key]; !ranked {
			panic(fmt.Sprintf("dance %q: matched dancer %q is not ranked", d.Name, key))
		}
		matched[key] = true
	}

	d.Matchings = make([]string, 0, len(keys))
	d.Unmatched = make([]string, 0, len(p.rankings)-len(keys))
	for _, key := range p.rankings {
		if matched[key] {
			d.Matchings = append(d.Matchings, key)
		} else {
			d.Unmatched = append(d.Unmatched, key)
		}
	}
}

// OpenSpots returns how many places remain unfilled after matching
func (d *Dance) OpenSpots() int {
	return max(d.Quota-len(d.Matchings), 0)
}
