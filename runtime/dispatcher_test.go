package runtime

import (
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var forward = domain.ForwardDecision("newsA", "From Telegram (newsA): urgent")

func TestDispatcher_DeliversForwardDecisions(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	delivery := mocks.NewMockDelivery(ctrl)
	audit := mocks.NewMockIAuditRepository(ctrl)
	metrics := observability.NewMetrics()
	d := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), delivery, audit, metrics, 2, time.Second)

	delivery.EXPECT().Deliver(gomock.Any(), forward.Text).Return(domain.DeliveryResult{StatusCode: 200}, nil)
	audit.EXPECT().Store(gomock.Any()).Times(0)

	d.Submit(context.Background(), "1", forward)
	// Drop decisions never reach the destination
	d.Submit(context.Background(), "2", domain.DropDecision("newsA", domain.ReasonNoKeywordMatch))

	req.NoError(d.Drain(context.Background()))
	req.Equal(1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues("ok")))
}

func TestDispatcher_FailuresAreJournaled(t *testing.T) {
	tests := []struct {
		name   string
		result domain.DeliveryResult
		err    error
		label  string
		detail string
	}{
		{
			name:   "Rejected by destination",
			result: domain.DeliveryResult{StatusCode: 403, Body: `{"message": "Missing Access"}`},
			err:    fmt.Errorf("%w: status 403", relayerrors.ErrDeliveryRejected),
			label:  "rejected",
			detail: `status 403: {"message": "Missing Access"}`,
		},
		{
			name:   "Transport error",
			err:    fmt.Errorf("dial tcp: connection refused"),
			label:  "error",
			detail: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			delivery := mocks.NewMockDelivery(ctrl)
			audit := mocks.NewMockIAuditRepository(ctrl)
			metrics := observability.NewMetrics()
			d := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), delivery, audit, metrics, 1, time.Second)

			var stored domain.AuditEntry
			delivery.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(tt.result, tt.err)
			audit.EXPECT().Store(gomock.Any()).DoAndReturn(func(entry domain.AuditEntry) error {
				stored = entry
				return nil
			})

			d.Submit(context.Background(), "9", forward)
			req.NoError(d.Drain(context.Background()))

			req.Equal(domain.AuditDeliveryFailed, stored.Kind)
			req.Equal("newsA", stored.Actor)
			req.Equal("9", stored.Command)
			req.Equal(tt.detail, stored.Detail)
			req.Equal(1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues(tt.label)))
		})
	}
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	delivery := mocks.NewMockDelivery(ctrl)
	d := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), delivery, nil, nil, 2, time.Second)

	var mu sync.Mutex
	running, peak := 0, 0
	delivery.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, text string) (domain.DeliveryResult, error) {
		mu.Lock()
		running++
		peak = max(peak, running)
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return domain.DeliveryResult{StatusCode: 200}, nil
	}).Times(6)

	for i := range 6 {
		d.Submit(context.Background(), fmt.Sprint(i), forward)
	}
	req.NoError(d.Drain(context.Background()))
	req.LessOrEqual(peak, 2)
}

func TestDispatcher_DrainAbandonsSlowDeliveries(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	delivery := mocks.NewMockDelivery(ctrl)
	audit := mocks.NewMockIAuditRepository(ctrl)
	d := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), delivery, audit, nil, 1, time.Minute)

	cancelled := make(chan struct{})
	delivery.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, text string) (domain.DeliveryResult, error) {
		<-ctx.Done()
		close(cancelled)
		return domain.DeliveryResult{}, ctx.Err()
	})
	audit.EXPECT().Store(gomock.Any()).Return(nil).AnyTimes()

	d.Submit(context.Background(), "1", forward)

	graceCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req.Error(d.Drain(graceCtx))

	// Then the in-flight call is cancelled
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		req.Fail("In-flight delivery should have been cancelled")
	}
}

func TestDispatcher_SubmitDropsWhenContextDone(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	delivery := mocks.NewMockDelivery(ctrl)
	d := NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), delivery, nil, nil, 1, time.Minute)

	release := make(chan struct{})
	delivery.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, text string) (domain.DeliveryResult, error) {
		<-release
		return domain.DeliveryResult{StatusCode: 200}, nil
	}).Times(1)

	d.Submit(context.Background(), "1", forward)

	// Given the only slot is taken, a cancelled submit gives up
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Submit(ctx, "2", forward)

	close(release)
	req.NoError(d.Drain(context.Background()))
}
