package clarify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClarify(t *testing.T) {
	msg := `I want to fill a "form", please`
	text := Clarify([]Option{
		{ID: "leave", Title: "Leave Request"},
		{ID: "travel", Title: "Travel Request"},
		{ID: "expense", Title: "Expense Report"},
	}, msg)

	assert.Contains(t, text, msg)
	assert.Contains(t, text, "1. Leave Request\n2. Travel Request\n3. Expense Report\n")

	numbered := 0
	for _, line := range strings.Split(text, "\n") {
		if len(line) > 2 && line[0] >= '1' && line[0] <= '9' && line[1] == '.' {
			numbered++
		}
	}
	assert.Equal(t, 3, numbered)
}

func TestClarify_NoOptions(t *testing.T) {
	text := Clarify(nil, "hmm")
	assert.Contains(t, text, `"hmm"`)
	assert.NotContains(t, text, "1.")
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input string
		n     int
		idx   int
		ok    bool
	}{
		{"2", 3, 1, true},
		{" #1 ", 3, 0, true},
		{"option 3", 3, 2, true},
		{"Opção 2", 3, 1, true},
		{"3.", 3, 2, true},
		{"4", 3, 0, false},
		{"0", 3, 0, false},
		{"the second one", 3, 0, false},
	}
	for _, tt := range tests {
		idx, ok := ParseSelection(tt.input, tt.n)
		assert.Equal(t, tt.ok, ok, tt.input)
		if tt.ok {
			assert.Equal(t, tt.idx, idx, tt.input)
		}
	}
}
