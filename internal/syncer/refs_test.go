package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIssueRefs(t *testing.T) {
	tests := []struct {
		name        string
		tokens      []string
		wantRefs    []IssueRef
		wantDropped []string
	}{
		{
			name:   "valid identifiers",
			tokens: []string{"ENG-101", "ENG-102"},
			wantRefs: []IssueRef{
				{Identifier: "ENG-101", Number: 101},
				{Identifier: "ENG-102", Number: 102},
			},
		},
		{
			name:   "prefix case and length vary",
			tokens: []string{"eng-7", "PLATFORM2-33"},
			wantRefs: []IssueRef{
				{Identifier: "ENG-7", Number: 7},
				{Identifier: "PLATFORM2-33", Number: 33},
			},
		},
		{
			name:        "non-numeric suffix dropped",
			tokens:      []string{"ENG-abc", "ENG-101"},
			wantRefs:    []IssueRef{{Identifier: "ENG-101", Number: 101}},
			wantDropped: []string{"ENG-abc"},
		},
		{
			name:        "zero is not a positive sequence number",
			tokens:      []string{"ENG-0"},
			wantDropped: []string{"ENG-0"},
		},
		{
			name:        "missing dash dropped",
			tokens:      []string{"ENG101", "just-words-here"},
			wantDropped: []string{"ENG101", "just-words-here"},
		},
		{
			name:     "whitespace and empty tokens ignored",
			tokens:   []string{" ENG-5 ", "", "  "},
			wantRefs: []IssueRef{{Identifier: "ENG-5", Number: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, dropped := ParseIssueRefs(tt.tokens)
			assert.Equal(t, tt.wantRefs, refs)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCSV("a, b"))
	assert.Equal(t, []string{"a"}, SplitCSV("a,,"))
	assert.Nil(t, SplitCSV(""))
}
