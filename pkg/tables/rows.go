package tables

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedValue is returned when a cell cannot be parsed
	ErrMalformedValue = errors.New("malformed value")

	// ErrInvalidRow is returned when a parsed row fails validation
	ErrInvalidRow = errors.New("invalid row")
)

// Tables are read by column position. Header text is free form (form response sheets
// use the question wording), so header rows are skipped rather than interpreted.
const (
	quotaDanceCol = iota
	quotaQuotaCol
)

const (
	scoreDanceCol = iota
	scoreNameCol
	scoreEmailCol
	scoreTierCol
)

const (
	dancerTimestampCol = iota
	dancerEmailCol
	dancerNameCol
	dancerYearCol
	dancerGenderCol
	dancerTShirtCol
	dancerFirstChoiceCol
	dancerSecondChoiceCol
	dancerThirdChoiceCol
	dancerNonAuditionsCol
)

// QuotaRow is one row of the quotas table
type QuotaRow struct {
	Line  int
	Dance string `validate:"required"`
	Quota int    `validate:"gte=0"`
}

// ScoreRow is one row of the dance scores table
type ScoreRow struct {
	Line  int
	Dance string `validate:"required"`
	Name  string
	Email string `validate:"required"`
	Score int    `validate:"gte=0"`
}

// DancerRow is one row of the dancer rankings table
type DancerRow struct {
	Line         int
	Timestamp    string
	Email        string `validate:"required"`
	Name         string
	Year         string
	Gender       string
	TShirtSize   string
	Choices      []string `validate:"dive,required"`
	NonAuditions []string
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// cell returns the trimmed value at index, or "" if the row is short
func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseInt(table string, line int, column, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %w: %s %q", table, line, ErrMalformedValue, column, value)
	}
	return n, nil
}

func validateRow(table string, line int, row any) error {
	if err := validate.Struct(row); err != nil {
		return fmt.Errorf("%s row %d: %w: %v", table, line, ErrInvalidRow, err)
	}
	return nil
}

// splitList splits a comma separated cell into trimmed, non-empty values
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseQuotas converts raw rows into quota rows, skipping the first skip rows and blank rows.
// Line numbers are 1-based positions in the raw table.
func ParseQuotas(raw [][]string, skip int) ([]QuotaRow, error) {
	var rows []QuotaRow
	for i := skip; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		line := i + 1

		quota, err := parseInt("quotas", line, "quota", cell(raw[i], quotaQuotaCol))
		if err != nil {
			return nil, err
		}

		row := QuotaRow{Line: line, Dance: cell(raw[i], quotaDanceCol), Quota: quota}
		if err := validateRow("quotas", line, row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseScores converts raw rows into dance score rows
func ParseScores(raw [][]string, skip int) ([]ScoreRow, error) {
	var rows []ScoreRow
	for i := skip; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		line := i + 1

		score, err := parseInt("dance scores", line, "score", cell(raw[i], scoreTierCol))
		if err != nil {
			return nil, err
		}

		row := ScoreRow{
			Line:  line,
			Dance: cell(raw[i], scoreDanceCol),
			Name:  cell(raw[i], scoreNameCol),
			Email: cell(raw[i], scoreEmailCol),
			Score: score,
		}
		if err := validateRow("dance scores", line, row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDancers converts raw rows into dancer rows. Blank choice cells are dropped,
// so a dancer may rank fewer than three dances.
func ParseDancers(raw [][]string, skip int) ([]DancerRow, error) {
	var rows []DancerRow
	for i := skip; i < len(raw); i++ {
		if isBlank(raw[i]) {
			continue
		}
		line := i + 1
		r := raw[i]

		var choices []string
		for col := dancerFirstChoiceCol; col <= dancerThirdChoiceCol; col++ {
			if choice := cell(r, col); choice != "" {
				choices = append(choices, choice)
			}
		}

		row := DancerRow{
			Line:         line,
			Timestamp:    cell(r, dancerTimestampCol),
			Email:        cell(r, dancerEmailCol),
			Name:         cell(r, dancerNameCol),
			Year:         cell(r, dancerYearCol),
			Gender:       cell(r, dancerGenderCol),
			TShirtSize:   cell(r, dancerTShirtCol),
			Choices:      choices,
			NonAuditions: splitList(cell(r, dancerNonAuditionsCol)),
		}
		if err := validateRow("dancer rankings", line, row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
