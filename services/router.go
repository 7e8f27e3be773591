package services

import (
	"chat-relay/domain"
	"fmt"
)

// Route decides what happens to one inbound message. It depends only on its
// arguments: the same message and snapshot always give the same decision.
//
// The chat identifier goes through domain.Resolve, the same normalisation
// applied to channel references given in admin commands, otherwise list
// membership would silently never match.
// A chat present in both lists is treated as filtered.
func Route(message domain.InboundMessage, snapshot domain.Snapshot) domain.Decision {
	chat := domain.Resolve(message.ChatIdentifier)

	switch {
	case snapshot.HasChannel(domain.Filtered, chat):
		if message.Body != "" && snapshot.MatchesKeyword(message.Body) {
			return domain.ForwardDecision(chat, ForwardText(chat, message.Body))
		}
		return domain.DropDecision(chat, domain.ReasonNoKeywordMatch)
	case snapshot.HasChannel(domain.Unfiltered, chat):
		return domain.ForwardDecision(chat, ForwardText(chat, message.Body))
	default:
		return domain.DropDecision(chat, domain.ReasonNotSubscribed)
	}
}

func ForwardText(chat domain.ChannelID, body string) string {
	return fmt.Sprintf("From Telegram (%s): %s", chat, body)
}
