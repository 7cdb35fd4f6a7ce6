package csvsource

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_ReadsAllTables(t *testing.T) {
	tmpDir := t.TempDir()
	quotasPath := filepath.Join(tmpDir, "quotas.csv")
	scoresPath := filepath.Join(tmpDir, "dance_scores.csv")
	dancersPath := filepath.Join(tmpDir, "dancer_rankings.csv")

	require.NoError(t, os.WriteFile(quotasPath, []byte("Tango,2\nWaltz, 1\n"), 0644))
	require.NoError(t, os.WriteFile(scoresPath, []byte("Tango,Alice,alice@example.com,0\n"), 0644))
	require.NoError(t, os.WriteFile(dancersPath, []byte(
		"2024-09-01,alice@example.com,Alice,2027,F,M,Tango,Waltz,,\"Hip Hop, Tap\"\n"+
			"2024-09-02,bob@example.com,Bob,2026,M,L,Waltz\n"), 0644))

	src := &Source{QuotasPath: quotasPath, DanceScoresPath: scoresPath, DancerRankingsPath: dancersPath}
	ctx := context.Background()

	quotas, err := src.Quotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Tango", "2"}, {"Waltz", "1"}}, quotas)

	scores, err := src.DanceScores(ctx)
	require.NoError(t, err)
	assert.Len(t, scores, 1)

	dancers, err := src.DancerRankings(ctx)
	require.NoError(t, err)
	require.Len(t, dancers, 2)
	assert.Len(t, dancers[0], 10)
	assert.Equal(t, "Hip Hop, Tap", dancers[0][9])
	assert.Len(t, dancers[1], 7, "short rows are allowed")
}

func TestReadFile_NotFound(t *testing.T) {
	_, err := ReadFile("/nonexistent/path/quotas.csv")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	err := WriteFile(path, []string{"name", "dance"}, [][]string{{"Alice", "Tango"}, {"Bob, Jr.", ""}})
	require.NoError(t, err)

	records, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "dance"}, {"Alice", "Tango"}, {"Bob, Jr.", ""}}, records)
}

// failingCloser buffers writes and fails on Close
type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("no space left on device")
}

func TestWriteAndClose_ReportsCloseError(t *testing.T) {
	w := &failingCloser{}

	err := writeAndClose("out.csv", w, []string{"name"}, [][]string{{"Alice"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to close out.csv")
	assert.Contains(t, err.Error(), "no space left on device")
	assert.True(t, w.closed)
	assert.Equal(t, "name\nAlice\n", w.String())
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), []string{"name"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create")
}
