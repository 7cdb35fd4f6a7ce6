package sheetsclient

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// quoteTab turns a tab title into an A1 range reference
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// CellsToStrings converts API cell values into string rows. Numbers and
// booleans are rendered with fmt; nil cells become "".
func CellsToStrings(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, cell := range row {
			switch v := cell.(type) {
			case nil:
				cells[i] = ""
			case string:
				cells[i] = v
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// StringsToCells converts a header and rows into API cell values
func StringsToCells(header []string, rows [][]string) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	for _, row := range append([][]string{header}, rows...) {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}
	return values
}

// InputSource reads the three matcher input tables from tabs of one spreadsheet
type InputSource struct {
	Client            *Client
	SpreadsheetID     string
	QuotasTab         string
	DanceScoresTab    string
	DancerRankingsTab string
}

func (s *InputSource) Quotas(ctx context.Context) ([][]string, error) {
	return s.Client.ReadTable(ctx, s.SpreadsheetID, s.QuotasTab)
}

func (s *InputSource) DanceScores(ctx context.Context) ([][]string, error) {
	return s.Client.ReadTable(ctx, s.SpreadsheetID, s.DanceScoresTab)
}

func (s *InputSource) DancerRankings(ctx context.Context) ([][]string, error) {
	return s.Client.ReadTable(ctx, s.SpreadsheetID, s.DancerRankingsTab)
}

// PublishTable writes a header and rows to the named tab, creating the tab when missing
// and replacing its contents otherwise
func (c *Client) PublishTable(ctx context.Context, spreadsheetID, tab string, header []string, rows [][]string) error {
	titles, err := c.SheetTitles(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	if slices.Contains(titles, tab) {
		if err := c.ClearTab(ctx, spreadsheetID, tab); err != nil {
			return err
		}
	} else if _, err := c.CreateSheet(ctx, spreadsheetID, tab); err != nil {
		return fmt.Errorf("failed to create tab %q: %w", tab, err)
	}

	return c.UpdateValues(ctx, spreadsheetID, tab, StringsToCells(header, rows))
}
