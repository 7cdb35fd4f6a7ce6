package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDance is returned when a record names a dance absent from the registry
	ErrUnknownDance = errors.New("unknown dance")

	// ErrUnknownDancer is returned when a record names a dancer absent from the registry
	ErrUnknownDancer = errors.New("unknown dancer")

	// ErrInvalidTier is returned when a score falls outside 0..RejectTier
	ErrInvalidTier = errors.New("invalid tier")

	// ErrDuplicateScore is returned when a dance scores the same dancer twice
	ErrDuplicateScore = errors.New("duplicate score")
)

// keyed is an insertion-ordered map. Adding an existing key overwrites the value
// but keeps its original position.
type keyed[V any] struct {
	order []string
	items map[string]V
}

func newKeyed[V any]() keyed[V] {
	return keyed[V]{items: make(map[string]V)}
}

func (k *keyed[V]) put(key string, v V) {
	if _, exists := k.items[key]; !exists {
		k.order = append(k.order, key)
	}
	k.items[key] = v
}

func (k *keyed[V]) get(key string) (V, bool) {
	v, ok := k.items[key]
	return v, ok
}

func (k *keyed[V]) all() []V {
	out := make([]V, 0, len(k.order))
	for _, key := range k.order {
		out = append(out, k.items[key])
	}
	return out
}

// Dancers is an insertion-ordered collection of dancers keyed by normalized key
type Dancers struct {
	keyed[*Dancer]
}

// NewDancers creates an empty dancer collection
func NewDancers() *Dancers {
	return &Dancers{keyed: newKeyed[*Dancer]()}
}

// Add inserts or overwrites a dancer
func (c *Dancers) Add(d *Dancer) {
	c.put(d.Key, d)
}

// Get looks up a dancer; the key is normalized first
func (c *Dancers) Get(key string) (*Dancer, bool) {
	return c.get(NormalizeKey(key))
}

// Contains reports whether a dancer with the key exists
func (c *Dancers) Contains(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of dancers
func (c *Dancers) Len() int {
	return len(c.order)
}

// All returns dancers in insertion order
func (c *Dancers) All() []*Dancer {
	return c.all()
}

// Dances is an insertion-ordered collection of dances keyed by name
type Dances struct {
	keyed[*Dance]
}

// NewDances creates an empty dance collection
func NewDances() *Dances {
	return &Dances{keyed: newKeyed[*Dance]()}
}

// Add inserts or overwrites a dance
func (c *Dances) Add(d *Dance) {
	c.put(d.Name, d)
}

// Get looks up a dance by name (surrounding whitespace ignored)
func (c *Dances) Get(name string) (*Dance, bool) {
	return c.get(strings.TrimSpace(name))
}

// Contains reports whether a dance with the name exists
func (c *Dances) Contains(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Len returns the number of dances
func (c *Dances) Len() int {
	return len(c.order)
}

// All returns dances in insertion order
func (c *Dances) All() []*Dance {
	return c.all()
}

// Registry owns every dancer and dance record for the lifetime of a run
type Registry struct {
	Dancers    *Dancers
	Dances     *Dances
	RejectTier int
}

// New creates an empty registry using the given reject tier
func New(rejectTier int) *Registry {
	return &Registry{
		Dancers:    NewDancers(),
		Dances:     NewDances(),
		RejectTier: rejectTier,
	}
}

// AddDance creates a dance with the registry's reject tier and adds it
func (r *Registry) AddDance(name string, quota int) *Dance {
	dance := NewDance(strings.TrimSpace(name), quota, r.RejectTier)
	r.Dances.Add(dance)
	return dance
}

// AddDancer adds a dancer to the registry
func (r *Registry) AddDancer(d *Dancer) {
	r.Dancers.Add(d)
}

// Score registers a dancer's application to a dance at the given tier.
// A dance the dancer did not choose is recorded on the dancer's DidntPref list.
func (r *Registry) Score(danceName, dancerKey string, tier int) error {
	dance, ok := r.Dances.Get(danceName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDance, strings.TrimSpace(danceName))
	}
	dancer, ok := r.Dancers.Get(dancerKey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDancer, NormalizeKey(dancerKey))
	}
	if tier < 0 || tier > r.RejectTier {
		return fmt.Errorf("%w: %d (expected 0..%d)", ErrInvalidTier, tier, r.RejectTier)
	}
	if _, scored := dance.Scores[dancer.Key]; scored {
		return fmt.Errorf("%w: %q already scored %q", ErrDuplicateScore, dance.Name, dancer.Key)
	}

	if !dancer.Preffed(dance.Name) {
		dancer.AddDidntPref(dance.Name)
	}
	dance.AddApplicant(dancer, tier)
	return nil
}

// Resolved reports whether every dance has fixed rankings
func (r *Registry) Resolved() bool {
	for _, dance := range r.Dances.All() {
		if !dance.IsResolved() {
			return false
		}
	}
	return true
}
