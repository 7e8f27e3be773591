package domain

import (
	"strings"
)

// CommandName enumerates the administrator commands.
type CommandName int

const (
	AddFilterChannel CommandName = iota + 1
	AddUnfilterChannel
	RemoveFilterChannel
	RemoveUnfilterChannel
	AddKeyword
	RemoveKeyword
	ListFilter
	ListUnfilter
	ListKeyword
)

var commandNames = map[CommandName]string{
	AddFilterChannel:      "add_filter_channel",
	AddUnfilterChannel:    "add_unfilter_channel",
	RemoveFilterChannel:   "remove_filter_channel",
	RemoveUnfilterChannel: "remove_unfilter_channel",
	AddKeyword:            "add_keyword",
	RemoveKeyword:         "remove_keyword",
	ListFilter:            "list_filter",
	ListUnfilter:          "list_unfilter",
	ListKeyword:           "list_keyword",
}

func (c CommandName) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// NeedsArgument is true for every mutating command.
func (c CommandName) NeedsArgument() bool {
	switch c {
	case ListFilter, ListUnfilter, ListKeyword:
		return false
	default:
		return true
	}
}

// Usage is the help line sent back when the argument is missing.
func (c CommandName) Usage() string {
	switch c {
	case AddKeyword, RemoveKeyword:
		return "/" + c.String() + " <keyword>"
	case ListFilter, ListUnfilter, ListKeyword:
		return "/" + c.String()
	default:
		return "/" + c.String() + " <@channel | https://t.me/channel | channel>"
	}
}

// CommandEvent is an administrator command received on the source platform.
type CommandEvent struct {
	MessageID string
	SenderID  string
	ChatID    string // where the reply goes
	Name      CommandName
	Argument  string
}

// ParseCommand recognises "/name[@bot] [argument]". The argument is the rest
// of the first line, trimmed. ok is false for anything that is not one of
// the known commands.
func ParseCommand(text string) (name CommandName, argument string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return 0, "", false
	}
	line, _, _ := strings.Cut(text, "\n")
	head, rest, _ := strings.Cut(line, " ")
	head, _, _ = strings.Cut(strings.TrimPrefix(head, "/"), "@")
	for c, n := range commandNames {
		if n == head {
			return c, strings.TrimSpace(rest), true
		}
	}
	return 0, "", false
}
