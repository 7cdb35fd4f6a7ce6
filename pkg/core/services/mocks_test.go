package services

import (
	"context"
	"time"

	"github.com/jakechorley/dance-matcher/pkg/db"
)

// mockSource implements tables.Source
type mockSource struct {
	quotas  [][]string
	scores  [][]string
	dancers [][]string
}

func (m *mockSource) Quotas(ctx context.Context) ([][]string, error)         { return m.quotas, nil }
func (m *mockSource) DanceScores(ctx context.Context) ([][]string, error)    { return m.scores, nil }
func (m *mockSource) DancerRankings(ctx context.Context) ([][]string, error) { return m.dancers, nil }

// threeDancerSource has no ties, so its outcome does not depend on the seed:
// Alice gets Tango, Bob loses Tango to Alice and gets Waltz, Carol is unmatched.
func threeDancerSource() *mockSource {
	return &mockSource{
		quotas: [][]string{{"Tango", "1"}, {"Waltz", "1"}},
		scores: [][]string{
			{"Tango", "Alice", "alice@example.com", "0"},
			{"Tango", "Bob", "bob@example.com", "1"},
			{"Waltz", "Bob", "bob@example.com", "0"},
			{"Waltz", "Carol", "carol@example.com", "2"},
		},
		dancers: [][]string{
			{"2024-09-01", "alice@example.com", "Alice", "2027", "F", "M", "Tango"},
			{"2024-09-01", "bob@example.com", "Bob", "2026", "M", "L", "Tango", "Waltz"},
			{"2024-09-01", "carol@example.com", "Carol", "2025", "F", "S", "Waltz"},
		},
	}
}

// mockStore is an in-memory db.Database
type mockStore struct {
	runs        []db.MatchRun
	dances      map[string][]db.DanceResult
	assignments map[string][]db.DancerAssignment

	insertErr  error
	getRunsErr error
	notifiedAt time.Time
	markedKeys []string
}

func newMockStore() *mockStore {
	return &mockStore{
		dances:      map[string][]db.DanceResult{},
		assignments: map[string][]db.DancerAssignment{},
	}
}

func (m *mockStore) InsertMatchRun(ctx context.Context, run *db.MatchRun, dances []db.DanceResult, assignments []db.DancerAssignment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.runs = append(m.runs, *run)
	m.dances[run.ID] = dances
	m.assignments[run.ID] = assignments
	return nil
}

func (m *mockStore) GetMatchRuns(ctx context.Context) ([]db.MatchRun, error) {
	if m.getRunsErr != nil {
		return nil, m.getRunsErr
	}
	return append([]db.MatchRun(nil), m.runs...), nil
}

func (m *mockStore) GetDanceResults(ctx context.Context, runID string) ([]db.DanceResult, error) {
	return m.dances[runID], nil
}

func (m *mockStore) GetDancerAssignments(ctx context.Context, runID string) ([]db.DancerAssignment, error) {
	return m.assignments[runID], nil
}

func (m *mockStore) MarkNotified(ctx context.Context, runID string, dancerKeys []string, at time.Time) error {
	m.markedKeys = append(m.markedKeys, dancerKeys...)
	m.notifiedAt = at
	for i, a := range m.assignments[runID] {
		for _, key := range dancerKeys {
			if a.DancerKey == key {
				m.assignments[runID][i].NotifiedAt = &at
			}
		}
	}
	return nil
}

// mockPublisher records published tables
type mockPublisher struct {
	tabs   map[string][][]string
	titles []string
	err    error
}

func (m *mockPublisher) PublishTable(ctx context.Context, spreadsheetID, tab string, header []string, rows [][]string) error {
	if m.err != nil {
		return m.err
	}
	if m.tabs == nil {
		m.tabs = map[string][][]string{}
	}
	m.titles = append(m.titles, tab)
	m.tabs[tab] = append([][]string{header}, rows...)
	return nil
}

type sentEmail struct {
	to, subject, body string
}

// mockSender records emails and fails for listed recipients
type mockSender struct {
	sent   []sentEmail
	failTo map[string]error
}

func (m *mockSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err, ok := m.failTo[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}
