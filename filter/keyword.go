package filter

import (
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// KeywordMatcher answers whether a text contains at least one keyword,
// ignoring case. A nil or empty matcher never matches.
type KeywordMatcher struct {
	machine  *goahocorasick.Machine
	patterns []string
}

// NewKeywordMatcher builds the Aho-Corasick automaton over the case-folded keywords.
// When the automaton cannot be built the matcher falls back to a linear scan.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	folded := lo.Uniq(lo.FilterMap(keywords, func(kw string, _ int) (string, bool) {
		f := fold(kw)
		return f, f != ""
	}))
	sort.Strings(folded)

	m := &KeywordMatcher{patterns: folded}
	if len(folded) == 0 {
		return m
	}

	runes := make([][]rune, len(folded))
	for i, p := range folded {
		runes[i] = []rune(p)
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(runes); err == nil {
		m.machine = machine
	}
	return m
}

// Match reports whether any keyword is a substring of text, case-insensitively.
func (m *KeywordMatcher) Match(text string) bool {
	if m == nil || len(m.patterns) == 0 || text == "" {
		return false
	}
	folded := fold(text)
	if m.machine == nil {
		return m.scan(folded)
	}
	return m.search(folded)
}

// search runs the automaton; a panic inside the automaton degrades to a linear scan.
func (m *KeywordMatcher) search(folded string) (found bool) {
	defer func() {
		if r := recover(); r != nil {
			found = m.scan(folded)
		}
	}()
	return len(m.machine.MultiPatternSearch([]rune(folded), false)) > 0
}

func (m *KeywordMatcher) scan(folded string) bool {
	return lo.SomeBy(m.patterns, func(p string) bool {
		return strings.Contains(folded, p)
	})
}

func (m *KeywordMatcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Match is the one-shot form used when no prebuilt matcher is at hand.
func Match(text string, keywords []string) bool {
	return NewKeywordMatcher(keywords).Match(text)
}

func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}
