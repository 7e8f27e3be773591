package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_CopyOnWrite(t *testing.T) {
	req := require.New(t)
	base := NewSnapshot([]ChannelID{"newsA"}, nil, []string{"urgent"})

	// When channels and keywords are added on derived snapshots
	withChannel := base.WithChannel(Unfiltered, "chatB")
	withKeyword := base.WithKeyword("breaking")

	// Then the base snapshot is left as it was
	req.False(base.HasChannel(Unfiltered, "chatB"))
	req.False(base.HasKeyword("breaking"))
	req.True(withChannel.HasChannel(Unfiltered, "chatB"))
	req.True(withKeyword.HasKeyword("breaking"))
	req.True(withKeyword.MatchesKeyword("BREAKING: markets"))
	req.False(base.MatchesKeyword("BREAKING: markets"))
}

func TestSnapshot_Without(t *testing.T) {
	req := require.New(t)
	s := NewSnapshot([]ChannelID{"a", "b", "c"}, []ChannelID{"d"}, []string{"x", "y"})

	s = s.WithoutChannel(Filtered, "b").WithoutChannel(Unfiltered, "d").WithoutKeyword("x")

	req.Equal([]ChannelID{"a", "c"}, s.Channels(Filtered))
	req.Empty(s.Channels(Unfiltered))
	req.Equal([]string{"y"}, s.Keywords())
	req.False(s.MatchesKeyword("x marks the spot"))
}

func TestSnapshot_DuplicatesCollapsed(t *testing.T) {
	req := require.New(t)
	s := NewSnapshot([]ChannelID{"a", "a", "b"}, nil, []string{"x", "x"})
	req.Equal([]ChannelID{"a", "b"}, s.Channels(Filtered))
	req.Equal([]string{"x"}, s.Keywords())
}

func TestSnapshot_ReturnedSlicesAreCopies(t *testing.T) {
	req := require.New(t)
	s := NewSnapshot([]ChannelID{"a"}, nil, []string{"x"})

	channels := s.Channels(Filtered)
	channels[0] = "mutated"
	keywords := s.Keywords()
	keywords[0] = "mutated"

	req.True(s.HasChannel(Filtered, "a"))
	req.True(s.HasKeyword("x"))
}
