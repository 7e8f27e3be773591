package domain

import (
	"chat-relay/filter"
	"slices"

	"github.com/samber/lo"
)

// Snapshot is the point-in-time routing configuration.
// A Snapshot is never mutated once built: every change produces a new one,
// so it can be shared between goroutines without copying.
type Snapshot struct {
	filtered   []ChannelID
	unfiltered []ChannelID
	keywords   []string
	matcher    *filter.KeywordMatcher
}

// NewSnapshot copies the given lists, collapsing duplicates while keeping
// the first occurrence order.
func NewSnapshot(filtered, unfiltered []ChannelID, keywords []string) Snapshot {
	kws := lo.Uniq(keywords)
	return Snapshot{
		filtered:   lo.Uniq(filtered),
		unfiltered: lo.Uniq(unfiltered),
		keywords:   kws,
		matcher:    filter.NewKeywordMatcher(kws),
	}
}

func EmptySnapshot() Snapshot {
	return NewSnapshot(nil, nil, nil)
}

func (s Snapshot) Channels(kind ChannelKind) []ChannelID {
	if kind == Filtered {
		return slices.Clone(s.filtered)
	}
	return slices.Clone(s.unfiltered)
}

func (s Snapshot) Keywords() []string {
	return slices.Clone(s.keywords)
}

func (s Snapshot) HasChannel(kind ChannelKind, id ChannelID) bool {
	if kind == Filtered {
		return slices.Contains(s.filtered, id)
	}
	return slices.Contains(s.unfiltered, id)
}

func (s Snapshot) HasKeyword(keyword string) bool {
	return slices.Contains(s.keywords, keyword)
}

// MatchesKeyword is the case-insensitive substring test against the keyword set.
func (s Snapshot) MatchesKeyword(text string) bool {
	return s.matcher.Match(text)
}

func (s Snapshot) WithChannel(kind ChannelKind, id ChannelID) Snapshot {
	if kind == Filtered {
		return NewSnapshot(append(slices.Clone(s.filtered), id), s.unfiltered, s.keywords)
	}
	return NewSnapshot(s.filtered, append(slices.Clone(s.unfiltered), id), s.keywords)
}

func (s Snapshot) WithoutChannel(kind ChannelKind, id ChannelID) Snapshot {
	if kind == Filtered {
		return NewSnapshot(lo.Without(s.filtered, id), s.unfiltered, s.keywords)
	}
	return NewSnapshot(s.filtered, lo.Without(s.unfiltered, id), s.keywords)
}

func (s Snapshot) WithKeyword(keyword string) Snapshot {
	return NewSnapshot(s.filtered, s.unfiltered, append(slices.Clone(s.keywords), keyword))
}

func (s Snapshot) WithoutKeyword(keyword string) Snapshot {
	return NewSnapshot(s.filtered, s.unfiltered, lo.Without(s.keywords, keyword))
}
