package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jakechorley/dance-matcher/pkg/core/registry"
	"github.com/jakechorley/dance-matcher/pkg/tables/csvsource"
)

// Output file names
const (
	ByDancerFile = "matchings_by_dancer.csv"
	ByDanceFile  = "matchings_by_dance.csv"
)

// UnmatchedLabel is shown in place of a dance for dancers without an assignment
const UnmatchedLabel = "unmatched"

const listSeparator = "; "

var (
	ByDancerHeader = []string{"email", "name", "choices", "didnt_pref", "ratings", "dance"}
	ByDanceHeader  = []string{"name", "quota", "matchings", "unmatched", "scores", "rankings", "reds", "open_spots"}
)

// DancerRow is one line of the by-dancer report
type DancerRow struct {
	Email     string
	Name      string
	Choices   []string
	DidntPref []string
	Ratings   []string // "dance=tier" in registry order
	Dance     string
}

// Values returns the row as cells matching ByDancerHeader
func (r DancerRow) Values() []string {
	return []string{
		r.Email,
		r.Name,
		strings.Join(r.Choices, listSeparator),
		strings.Join(r.DidntPref, listSeparator),
		strings.Join(r.Ratings, listSeparator),
		r.Dance,
	}
}

// DanceRow is one line of the by-dance report
type DanceRow struct {
	Name      string
	Quota     int
	Matchings []string
	Unmatched []string
	Scores    []string // "dancer=tier" in registration order of tiers
	Rankings  []string
	Reds      []string
	OpenSpots int
}

// Values returns the row as cells matching ByDanceHeader
func (r DanceRow) Values() []string {
	return []string{
		r.Name,
		strconv.Itoa(r.Quota),
		strings.Join(r.Matchings, listSeparator),
		strings.Join(r.Unmatched, listSeparator),
		strings.Join(r.Scores, listSeparator),
		strings.Join(r.Rankings, listSeparator),
		strings.Join(r.Reds, listSeparator),
		strconv.Itoa(r.OpenSpots),
	}
}

// ByDancer builds the by-dancer report in registry order
func ByDancer(reg *registry.Registry) []DancerRow {
	rows := make([]DancerRow, 0, reg.Dancers.Len())
	for _, dancer := range reg.Dancers.All() {
		var ratings []string
		for _, dance := range reg.Dances.All() {
			if tier, ok := dancer.Ratings[dance.Name]; ok {
				ratings = append(ratings, fmt.Sprintf("%s=%d", dance.Name, tier))
			}
		}

		dance := dancer.Dance
		if dance == "" {
			dance = UnmatchedLabel
		}

		rows = append(rows, DancerRow{
			Email:     dancer.Key,
			Name:      dancer.Name,
			Choices:   dancer.Choices,
			DidntPref: dancer.DidntPref,
			Ratings:   ratings,
			Dance:     dance,
		})
	}
	return rows
}

// ByDance builds the by-dance report in registry order
func ByDance(reg *registry.Registry) []DanceRow {
	rows := make([]DanceRow, 0, reg.Dances.Len())
	for _, dance := range reg.Dances.All() {
		var scores []string
		for tier, bucket := range dance.Tiers() {
			for _, key := range bucket {
				scores = append(scores, fmt.Sprintf("%s=%d", key, tier))
			}
		}
		reds := dance.Reds()
		for _, key := range reds {
			scores = append(scores, fmt.Sprintf("%s=%d", key, dance.RejectTier()))
		}

		rows = append(rows, DanceRow{
			Name:      dance.Name,
			Quota:     dance.Quota,
			Matchings: dance.Matchings,
			Unmatched: dance.Unmatched,
			Scores:    scores,
			Rankings:  dance.Rankings(),
			Reds:      reds,
			OpenSpots: dance.OpenSpots(),
		})
	}
	return rows
}

// Table converts report rows into a header plus cell rows
func Table[R interface{ Values() []string }](header []string, rows []R) ([]string, [][]string) {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Values())
	}
	return header, cells
}

// WriteCSV writes both reports into dir and returns the written paths
func WriteCSV(dir string, reg *registry.Registry) ([]string, error) {
	byDancerPath := filepath.Join(dir, ByDancerFile)
	header, cells := Table(ByDancerHeader, ByDancer(reg))
	if err := csvsource.WriteFile(byDancerPath, header, cells); err != nil {
		return nil, fmt.Errorf("failed to write by-dancer report: %w", err)
	}

	byDancePath := filepath.Join(dir, ByDanceFile)
	header, cells = Table(ByDanceHeader, ByDance(reg))
	if err := csvsource.WriteFile(byDancePath, header, cells); err != nil {
		return nil, fmt.Errorf("failed to write by-dance report: %w", err)
	}

	return []string{byDancerPath, byDancePath}, nil
}
