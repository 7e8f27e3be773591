package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EventLoopWorker)(nil)

// EventLoopWorker is the single consumer of inbound events. Commands are
// handled one after the other, so their read-check-mutate-persist sequences
// never interleave.
type EventLoopWorker struct {
	log          *slog.Logger
	events       <-chan contract.Event
	store        contract.IConfigStore
	admin        *services.AdminService
	dispatcher   contract.IDispatcher
	source       contract.Source
	metrics      *observability.Metrics
	replyTimeout time.Duration
}

func NewEventLoopWorker(
	log *slog.Logger,
	events <-chan contract.Event,
	store contract.IConfigStore,
	admin *services.AdminService,
	dispatcher contract.IDispatcher,
	source contract.Source,
	metrics *observability.Metrics,
	replyTimeout time.Duration) *EventLoopWorker {
	return &EventLoopWorker{
		log:          log,
		events:       events,
		store:        store,
		admin:        admin,
		dispatcher:   dispatcher,
		source:       source,
		metrics:      metrics,
		replyTimeout: replyTimeout,
	}
}

func (w *EventLoopWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping event loop")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel is closed")
				return nil
			}
			if err := w.Handle(ctx, evt); err != nil {
				w.log.Error("Failed to process event", "event_id", eventID(evt), "error", err)
			}
		}
	}
}

// Handle processes one event. A panic is turned into an error so that one
// bad message never stops the loop.
func (w *EventLoopWorker) Handle(ctx context.Context, evt contract.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if w.metrics != nil {
				w.metrics.EventPanics.Inc()
			}
			err = fmt.Errorf("%w: %v", errors.ErrEventPanic, r)
		}
	}()

	switch e := evt.(type) {
	case domain.InboundMessage:
		w.route(ctx, e)
	case domain.CommandEvent:
		return w.command(ctx, e)
	default:
		w.log.Debug("Ignoring unknown event", "type", fmt.Sprintf("%T", evt))
	}
	return nil
}

func (w *EventLoopWorker) route(ctx context.Context, msg domain.InboundMessage) {
	decision := services.Route(msg, w.store.Snapshot())
	if w.metrics != nil {
		w.metrics.RoutingDecisions.WithLabelValues(decision.Action.String(), decision.Reason).Inc()
	}

	switch {
	case decision.Action == domain.Forward:
		w.log.Info("New message received", "message_id", msg.ID, "chat", decision.Chat)
		w.dispatcher.Submit(ctx, msg.ID, decision)
	case decision.Reason == domain.ReasonNoKeywordMatch:
		w.log.Info("Message without keyword", "message_id", msg.ID, "chat", decision.Chat)
	default:
		w.log.Debug("Message from unsubscribed chat", "message_id", msg.ID, "chat", decision.Chat)
	}
}

func (w *EventLoopWorker) command(ctx context.Context, cmd domain.CommandEvent) error {
	reply := w.admin.Handle(cmd)

	replyCtx, cancel := context.WithTimeout(ctx, w.replyTimeout)
	defer cancel()
	if err := w.source.Reply(replyCtx, cmd.ChatID, cmd.MessageID, reply); err != nil {
		return fmt.Errorf("replying to %s: %w", cmd.Name, err)
	}
	return nil
}

func eventID(evt contract.Event) string {
	switch e := evt.(type) {
	case domain.InboundMessage:
		return e.ID
	case domain.CommandEvent:
		return e.MessageID
	default:
		return ""
	}
}
