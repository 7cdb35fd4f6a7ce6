package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Source reads the three input tables from CSV files
type Source struct {
	QuotasPath         string
	DanceScoresPath    string
	DancerRankingsPath string
}

// Quotas reads the quotas file
func (s *Source) Quotas(ctx context.Context) ([][]string, error) {
	return ReadFile(s.QuotasPath)
}

// DanceScores reads the dance scores file
func (s *Source) DanceScores(ctx context.Context) ([][]string, error) {
	return ReadFile(s.DanceScoresPath)
}

// DancerRankings reads the dancer rankings file
func (s *Source) DancerRankings(ctx context.Context) ([][]string, error) {
	return ReadFile(s.DancerRankingsPath)
}

// ReadFile reads every record of a CSV file. Rows may have differing field counts.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// WriteFile writes a header and rows to a CSV file, replacing any existing file
func WriteFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return writeAndClose(path, f, header, rows)
}

// writeAndClose reports close errors, which is where delayed write failures surface
func writeAndClose(path string, w io.WriteCloser, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		w.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		w.Close()
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
