package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
)

var _ contract.Worker = (*SourcePollerWorker)(nil)

// SourcePollerWorker feeds the event channel from the source platform.
// An error from Poll makes the supervisor restart it.
type SourcePollerWorker struct {
	log    *slog.Logger
	source contract.Source
	events chan<- contract.Event
}

func NewSourcePollerWorker(log *slog.Logger, source contract.Source, events chan<- contract.Event) *SourcePollerWorker {
	return &SourcePollerWorker{log: log, source: source, events: events}
}

func (w *SourcePollerWorker) Run(ctx context.Context) error {
	w.log.Info("Polling source platform")
	return w.source.Poll(ctx, w.events)
}
