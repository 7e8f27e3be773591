package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// ChannelID is the canonical form of a channel reference, used as the key of
// both channel lists.
type ChannelID string

type ChannelKind int

const (
	Filtered ChannelKind = iota
	Unfiltered
)

func (k ChannelKind) String() string {
	switch k {
	case Filtered:
		return "FILTERED_CHANNELS"
	case Unfiltered:
		return "UNFILTERED_CHANNELS"
	default:
		return "UNKNOWN_CHANNELS"
	}
}

var permalinkPattern = regexp.MustCompile(`https?://[^/\s]+/(\w+)`)

// Resolve turns "@handle", "https://t.me/handle" or a bare handle into the
// canonical channel identifier. It is purely syntactic and never touches the
// network, so Resolve(Resolve(s)) == Resolve(s).
func Resolve(ref string) ChannelID {
	s := strings.TrimRightFunc(strings.TrimLeftFunc(ref, isHandleNoise), unicode.IsSpace)
	if m := permalinkPattern.FindStringSubmatch(s); m != nil {
		return ChannelID(m[1])
	}
	return ChannelID(s)
}

func isHandleNoise(r rune) bool {
	return r == '@' || unicode.IsSpace(r)
}
