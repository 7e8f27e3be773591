package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordMatcher_Match(t *testing.T) {
	matcher := NewKeywordMatcher([]string{"urgent", "Breaking News", "été"})

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "Exact keyword", text: "urgent", expected: true},
		{name: "Mixed case in text", text: "this is Urgent news", expected: true},
		{name: "Keyword inside a word", text: "nonurgently", expected: true},
		{name: "Multi word keyword, other case", text: "BREAKING NEWS: rates up", expected: true},
		{name: "Accented keyword, upper case text", text: "UN ÉTÉ CHAUD", expected: true},
		{name: "No keyword", text: "routine update", expected: false},
		{name: "Partial keyword only", text: "urge", expected: false},
		{name: "Empty text", text: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.expected, matcher.Match(tt.text))
		})
	}
}

func TestKeywordMatcher_EmptySetNeverMatches(t *testing.T) {
	req := require.New(t)
	req.False(NewKeywordMatcher(nil).Match("anything at all"))
	req.False(NewKeywordMatcher([]string{}).Match("anything at all"))
	req.False(NewKeywordMatcher([]string{""}).Match("anything at all"))

	var nilMatcher *KeywordMatcher
	req.False(nilMatcher.Match("anything at all"))
	req.Equal(0, nilMatcher.Len())
}

func TestKeywordMatcher_CaseVariantsCollapse(t *testing.T) {
	req := require.New(t)
	matcher := NewKeywordMatcher([]string{"Urgent", "urgent", "URGENT"})
	req.Equal(1, matcher.Len())
	req.True(matcher.Match("uRgEnT"))
}

func TestMatch_CaseInsensitive(t *testing.T) {
	keywords := []string{"Alpha", "beta", "GAMMA"}
	texts := []string{"ALPHA release", "Beta test", "gamma ray", "delta", "", "AlPhAbEt"}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			req := require.New(t)
			req.Equal(Match(text, keywords), Match(strings.ToLower(text), keywords))
		})
	}
}

func TestMatch_OverlappingKeywords(t *testing.T) {
	req := require.New(t)
	keywords := []string{"he", "she", "hers", "his"}
	req.True(Match("ushers", keywords))
	req.True(Match("this", keywords))
	req.False(Match("xyz", keywords))
}
