package registry

import (
	"slices"
	"strings"
)

// NormalizeKey trims and case-folds an identity key (e.g. an email address)
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Dancer represents an individual applying to one or more dances
type Dancer struct {
	// Key is the normalized identity of the dancer (lowercased email)
	Key string

	// Name is the display name
	Name string

	// Choices are the dancer's ranked dance names, most preferred first
	Choices []string

	// DidntPref lists dances that scored this dancer without the dancer choosing them.
	// Reporting only, never used for ranking.
	DidntPref []string

	// Ratings maps dance name to the tier that dance gave this dancer
	Ratings map[string]int

	// Dance is the dance this dancer was matched to (empty if unmatched)
	Dance string

	// Display attributes carried through to reports
	Timestamp    string
	Year         string
	Gender       string
	TShirtSize   string
	NonAuditions []string
}

// NewDancer creates a dancer with a normalized key and the given ranked choices
func NewDancer(key, name string, choices []string) *Dancer {
	return &Dancer{
		Key:     NormalizeKey(key),
		Name:    strings.TrimSpace(name),
		Choices: slices.Clone(choices),
		Ratings: make(map[string]int),
	}
}

// Preffed reports whether the dancer explicitly ranked the given dance
func (d *Dancer) Preffed(dance string) bool {
	return slices.Contains(d.Choices, dance)
}

// AddDidntPref records a dance that scored the dancer without being chosen
func (d *Dancer) AddDidntPref(dance string) {
	if !slices.Contains(d.DidntPref, dance) {
		d.DidntPref = append(d.DidntPref, dance)
	}
}

// IsMatched returns true if the dancer has been assigned to a dance
func (d *Dancer) IsMatched() bool {
	return d.Dance != ""
}
