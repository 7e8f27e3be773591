package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type loopFixture struct {
	worker     *EventLoopWorker
	events     chan contract.Event
	store      *mocks.MockIConfigStore
	dispatcher *mocks.MockIDispatcher
	source     *mocks.MockSource
	metrics    *observability.Metrics
}

func newLoopFixture(t *testing.T) loopFixture {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := mocks.NewMockIConfigStore(ctrl)
	dispatcher := mocks.NewMockIDispatcher(ctrl)
	source := mocks.NewMockSource(ctrl)
	metrics := observability.NewMetrics()
	admin := services.NewAdminService(log, store, nil, metrics, []string{"42"})
	events := make(chan contract.Event, 4)
	return loopFixture{
		worker:     NewEventLoopWorker(log, events, store, admin, dispatcher, source, metrics, time.Second),
		events:     events,
		store:      store,
		dispatcher: dispatcher,
		source:     source,
		metrics:    metrics,
	}
}

func routingSnapshot() domain.Snapshot {
	return domain.NewSnapshot([]domain.ChannelID{"newsA"}, []domain.ChannelID{"chatB"}, []string{"urgent"})
}

func TestEventLoop_ForwardsMatchingMessage(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.store.EXPECT().Snapshot().Return(routingSnapshot())
	f.dispatcher.EXPECT().
		Submit(gomock.Any(), "1", domain.ForwardDecision("newsA", "From Telegram (newsA): URGENT: server down")).
		Times(1)

	err := f.worker.Handle(context.Background(), domain.InboundMessage{ID: "1", ChatIdentifier: "newsA", Body: "URGENT: server down"})

	req.NoError(err)
	req.Equal(1.0, testutil.ToFloat64(f.metrics.RoutingDecisions.WithLabelValues("forward", "")))
}

func TestEventLoop_DropsWithoutSubmitting(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.store.EXPECT().Snapshot().Return(routingSnapshot()).Times(2)
	f.dispatcher.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	req.NoError(f.worker.Handle(context.Background(), domain.InboundMessage{ID: "2", ChatIdentifier: "newsA", Body: "weather is nice"}))
	req.NoError(f.worker.Handle(context.Background(), domain.InboundMessage{ID: "3", ChatIdentifier: "other", Body: "urgent"}))

	req.Equal(1.0, testutil.ToFloat64(f.metrics.RoutingDecisions.WithLabelValues("drop", domain.ReasonNoKeywordMatch)))
	req.Equal(1.0, testutil.ToFloat64(f.metrics.RoutingDecisions.WithLabelValues("drop", domain.ReasonNotSubscribed)))
}

func TestEventLoop_CommandIsAnsweredOnItsChat(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.store.EXPECT().AddKeyword("urgent").Return(true, nil)
	f.source.EXPECT().Reply(gomock.Any(), "1000", "7", "Keyword urgent added.").Return(nil)

	err := f.worker.Handle(context.Background(), domain.CommandEvent{
		MessageID: "7", SenderID: "42", ChatID: "1000", Name: domain.AddKeyword, Argument: "urgent",
	})
	req.NoError(err)
}

func TestEventLoop_ReplyFailureIsReturned(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.source.EXPECT().Reply(gomock.Any(), "1000", "7", services.MsgDenied).Return(fmt.Errorf("flood wait"))

	err := f.worker.Handle(context.Background(), domain.CommandEvent{
		MessageID: "7", SenderID: "999", ChatID: "1000", Name: domain.ListKeyword,
	})
	req.ErrorContains(err, "flood wait")
}

func TestEventLoop_PanicIsContained(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.store.EXPECT().Snapshot().DoAndReturn(func() domain.Snapshot { panic("corrupted") })

	err := f.worker.Handle(context.Background(), domain.InboundMessage{ID: "1", ChatIdentifier: "newsA", Body: "urgent"})

	req.ErrorIs(err, errors.ErrEventPanic)
	req.Equal(1.0, testutil.ToFloat64(f.metrics.EventPanics))
}

func TestEventLoop_RunProcessesEventsInOrder(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	f.store.EXPECT().Snapshot().Return(routingSnapshot()).Times(2)
	gomock.InOrder(
		f.dispatcher.EXPECT().Submit(gomock.Any(), "1", gomock.Any()),
		f.dispatcher.EXPECT().Submit(gomock.Any(), "2", gomock.Any()),
	)

	f.events <- domain.InboundMessage{ID: "1", ChatIdentifier: "chatB", Body: "first"}
	f.events <- "not an event"
	f.events <- domain.InboundMessage{ID: "2", ChatIdentifier: "chatB", Body: "second"}
	close(f.events)

	// Then a closed channel ends the loop cleanly
	req.NoError(f.worker.Run(context.Background()))
}

func TestEventLoop_RunStopsOnCancel(t *testing.T) {
	req := require.New(t)
	f := newLoopFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(f.worker.Run(ctx), context.Canceled)
}
