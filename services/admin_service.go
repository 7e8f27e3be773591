package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	MsgDenied        = "You are not allowed to run this command."
	MsgPersistFailed = "Could not save the configuration, nothing was changed."
)

const (
	outcomeDenied  = "denied"
	outcomeApplied = "applied"
	outcomeNoop    = "noop"
	outcomeUsage   = "usage"
	outcomeFailed  = "failed"
	outcomeListed  = "listed"
)

// AdminService executes administrator commands against the config store.
// Authorization is checked once, in Handle, before any command runs.
type AdminService struct {
	log     *slog.Logger
	store   contract.IConfigStore
	audit   contract.IAuditRepository
	metrics *observability.Metrics
	admins  map[string]struct{}
	now     func() time.Time
}

func NewAdminService(
	log *slog.Logger,
	store contract.IConfigStore,
	audit contract.IAuditRepository,
	metrics *observability.Metrics,
	admins []string) *AdminService {
	return &AdminService{
		log:     log,
		store:   store,
		audit:   audit,
		metrics: metrics,
		admins:  lo.SliceToMap(admins, func(id string) (string, struct{}) { return id, struct{}{} }),
		now:     time.Now,
	}
}

func (s *AdminService) IsAdmin(senderID string) bool {
	_, ok := s.admins[senderID]
	return ok
}

// Handle returns the reply to send back to the command origin.
// The reply for a mutation is only produced once the change is persisted.
func (s *AdminService) Handle(cmd domain.CommandEvent) string {
	if !s.IsAdmin(cmd.SenderID) {
		s.log.Warn("Admin command denied", "sender", cmd.SenderID, "command", cmd.Name.String())
		s.record(domain.AuditDenied, cmd, errors.ErrUnauthorized.Error())
		s.count(cmd, outcomeDenied)
		return MsgDenied
	}

	if cmd.Name.NeedsArgument() && cmd.Argument == "" {
		s.count(cmd, outcomeUsage)
		return "Usage: " + cmd.Name.Usage()
	}

	reply, outcome := s.dispatch(cmd)
	s.count(cmd, outcome)
	if outcome != outcomeListed {
		s.record(domain.AuditCommand, cmd, fmt.Sprintf("%s: %s", outcome, reply))
	}
	return reply
}

func (s *AdminService) dispatch(cmd domain.CommandEvent) (string, string) {
	switch cmd.Name {
	case domain.AddFilterChannel:
		return s.addChannel(domain.Filtered, cmd.Argument)
	case domain.AddUnfilterChannel:
		return s.addChannel(domain.Unfiltered, cmd.Argument)
	case domain.RemoveFilterChannel:
		return s.removeChannel(domain.Filtered, cmd.Argument)
	case domain.RemoveUnfilterChannel:
		return s.removeChannel(domain.Unfiltered, cmd.Argument)
	case domain.AddKeyword:
		return s.addKeyword(cmd.Argument)
	case domain.RemoveKeyword:
		return s.removeKeyword(cmd.Argument)
	case domain.ListFilter:
		return s.listChannels(domain.Filtered), outcomeListed
	case domain.ListUnfilter:
		return s.listChannels(domain.Unfiltered), outcomeListed
	case domain.ListKeyword:
		return s.listKeywords(), outcomeListed
	default:
		return errors.ErrUnknownCommand.Error(), outcomeFailed
	}
}

func (s *AdminService) addChannel(kind domain.ChannelKind, ref string) (string, string) {
	id := domain.Resolve(ref)
	added, err := s.store.AddChannel(kind, id)
	if err != nil {
		s.log.Error("Failed to persist channels", "channel", id, "list", kind.String(), "error", err)
		return MsgPersistFailed, outcomeFailed
	}
	if !added {
		return fmt.Sprintf("Channel %s already exists in %s.", id, kind), outcomeNoop
	}
	s.log.Info("Channel added", "channel", id, "list", kind.String())
	return fmt.Sprintf("Channel %s added to %s.", id, kind), outcomeApplied
}

func (s *AdminService) removeChannel(kind domain.ChannelKind, ref string) (string, string) {
	id := domain.Resolve(ref)
	removed, err := s.store.RemoveChannel(kind, id)
	if err != nil {
		s.log.Error("Failed to persist channels", "channel", id, "list", kind.String(), "error", err)
		return MsgPersistFailed, outcomeFailed
	}
	if !removed {
		return fmt.Sprintf("Channel %s not found in %s.", id, kind), outcomeNoop
	}
	s.log.Info("Channel removed", "channel", id, "list", kind.String())
	return fmt.Sprintf("Channel %s removed from %s.", id, kind), outcomeApplied
}

// Keywords are stored exactly as typed, only matching ignores case.
func (s *AdminService) addKeyword(keyword string) (string, string) {
	added, err := s.store.AddKeyword(keyword)
	if err != nil {
		s.log.Error("Failed to persist keywords", "keyword", keyword, "error", err)
		return MsgPersistFailed, outcomeFailed
	}
	if !added {
		return fmt.Sprintf("Keyword %s already exists.", keyword), outcomeNoop
	}
	s.log.Info("Keyword added", "keyword", keyword)
	return fmt.Sprintf("Keyword %s added.", keyword), outcomeApplied
}

func (s *AdminService) removeKeyword(keyword string) (string, string) {
	removed, err := s.store.RemoveKeyword(keyword)
	if err != nil {
		s.log.Error("Failed to persist keywords", "keyword", keyword, "error", err)
		return MsgPersistFailed, outcomeFailed
	}
	if !removed {
		return fmt.Sprintf("Keyword %s not found.", keyword), outcomeNoop
	}
	s.log.Info("Keyword removed", "keyword", keyword)
	return fmt.Sprintf("Keyword %s removed.", keyword), outcomeApplied
}

func (s *AdminService) listChannels(kind domain.ChannelKind) string {
	channels := s.store.Snapshot().Channels(kind)
	if len(channels) == 0 {
		return fmt.Sprintf("No channels in %s.", kind)
	}
	title := "Filter Channel:"
	if kind == domain.Unfiltered {
		title = "Unfilter Channel:"
	}
	return numberedList(title, lo.Map(channels, func(id domain.ChannelID, _ int) string {
		return string(id)
	}))
}

func (s *AdminService) listKeywords() string {
	keywords := s.store.Snapshot().Keywords()
	if len(keywords) == 0 {
		return "No keywords added."
	}
	return numberedList("Keywords:", keywords)
}

// numberedList renders a 1-indexed listing under a title line.
func numberedList(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title)
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}

// record never fails the command: a journal error is only logged.
func (s *AdminService) record(kind domain.AuditKind, cmd domain.CommandEvent, detail string) {
	if s.audit == nil {
		return
	}
	entry := domain.NewAuditEntry(kind, cmd.SenderID, strings.TrimSpace(cmd.Name.String()+" "+cmd.Argument), detail, s.now())
	if err := s.audit.Store(entry); err != nil {
		s.log.Error("Failed to journal admin command", "sender", cmd.SenderID, "error", err)
	}
}

func (s *AdminService) count(cmd domain.CommandEvent, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AdminCommands.WithLabelValues(cmd.Name.String(), outcome).Inc()
}
