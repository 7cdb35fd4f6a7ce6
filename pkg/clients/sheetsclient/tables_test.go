package sheetsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellsToStrings(t *testing.T) {
	values := [][]interface{}{
		{"Tango", float64(2)},
		{"Waltz", nil, true},
		{},
	}

	assert.Equal(t, [][]string{
		{"Tango", "2"},
		{"Waltz", "", "true"},
		{},
	}, CellsToStrings(values))
}

func TestStringsToCells(t *testing.T) {
	values := StringsToCells([]string{"name", "dance"}, [][]string{{"Alice", "Tango"}, {"Bob", ""}})

	assert.Equal(t, [][]interface{}{
		{"name", "dance"},
		{"Alice", "Tango"},
		{"Bob", ""},
	}, values)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Form Responses 1'", quoteTab("Form Responses 1"))
	assert.Equal(t, "'Bob''s tab'", quoteTab("Bob's tab"))
}
