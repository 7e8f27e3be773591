// Package domain contains core concepts of the relay.
// This file defines inbound messages and the routing decision made for them.
package domain

// InboundMessage is a message observed on the source platform.
type InboundMessage struct {
	ID             string
	ChatIdentifier string // username when the chat has one, numeric id otherwise
	Body           string
}

type Action int

const (
	Drop Action = iota
	Forward
)

func (a Action) String() string {
	if a == Forward {
		return "forward"
	}
	return "drop"
}

const (
	ReasonNoKeywordMatch = "no keyword match"
	ReasonNotSubscribed  = "channel not subscribed"
)

// Decision is the outcome of routing one message.
type Decision struct {
	Action Action
	Chat   ChannelID
	Text   string // only set when forwarding
	Reason string // only set when dropping
}

func ForwardDecision(chat ChannelID, text string) Decision {
	return Decision{Action: Forward, Chat: chat, Text: text}
}

func DropDecision(chat ChannelID, reason string) Decision {
	return Decision{Action: Drop, Chat: chat, Reason: reason}
}

// DeliveryResult is what the destination answered for one delivery attempt.
type DeliveryResult struct {
	StatusCode int
	Body       string
}

func (r DeliveryResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
