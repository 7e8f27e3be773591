// Package runtime wires the relay together: delivery dispatching and the
// lifecycle of the supervised workers. It holds no routing rules.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"chat-relay/observability"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

var _ contract.IDispatcher = (*Dispatcher)(nil)

// Dispatcher runs deliveries in the background, at most maxInFlight at a
// time, each bounded by timeout. Failures are reported, never retried.
type Dispatcher struct {
	log         *slog.Logger
	delivery    contract.Delivery
	audit       contract.IAuditRepository
	metrics     *observability.Metrics
	sem         *semaphore.Weighted
	maxInFlight int64
	timeout     time.Duration
	base        context.Context
	abort       context.CancelFunc
}

func NewDispatcher(
	log *slog.Logger,
	delivery contract.Delivery,
	audit contract.IAuditRepository,
	metrics *observability.Metrics,
	maxInFlight int, timeout time.Duration) *Dispatcher {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	base, abort := context.WithCancel(context.Background())
	return &Dispatcher{
		log:         log,
		delivery:    delivery,
		audit:       audit,
		metrics:     metrics,
		sem:         semaphore.NewWeighted(int64(maxInFlight)),
		maxInFlight: int64(maxInFlight),
		timeout:     timeout,
		base:        base,
		abort:       abort,
	}
}

// Submit hands a forward decision over to a delivery goroutine. It only
// blocks while maxInFlight deliveries are running, which is bounded by the
// delivery timeout, or until ctx is done in which case the message is dropped.
func (d *Dispatcher) Submit(ctx context.Context, messageID string, decision domain.Decision) {
	if decision.Action != domain.Forward {
		return
	}
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.log.Warn("Delivery abandoned before start", "message_id", messageID, "chat", decision.Chat, "error", err)
		return
	}
	go func() {
		defer d.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("Delivery panicked", "message_id", messageID, "panic", r)
			}
		}()
		d.deliver(messageID, decision)
	}()
}

// deliver is detached from the event loop context so that a shutdown lets
// in-flight calls finish, until Drain gives up on them.
func (d *Dispatcher) deliver(messageID string, decision domain.Decision) {
	ctx, cancel := context.WithTimeout(d.base, d.timeout)
	defer cancel()

	start := time.Now()
	result, err := d.delivery.Deliver(ctx, decision.Text)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		d.observe("ok", elapsed)
		d.log.Info("Message forwarded", "message_id", messageID, "chat", decision.Chat, "status", result.StatusCode)
	case errors.Is(err, relayerrors.ErrDeliveryRejected):
		d.observe("rejected", elapsed)
		d.log.Error("Destination rejected message",
			"message_id", messageID, "chat", decision.Chat, "status", result.StatusCode, "body", result.Body)
		d.record(messageID, decision, fmt.Sprintf("status %d: %s", result.StatusCode, result.Body))
	default:
		d.observe("error", elapsed)
		d.log.Error("Delivery failed", "message_id", messageID, "chat", decision.Chat, "error", err)
		d.record(messageID, decision, err.Error())
	}
}

// Drain waits for running deliveries until ctx is done, then cancels the
// ones still running.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, d.maxInFlight); err != nil {
		d.abort()
		return fmt.Errorf("deliveries still in flight: %w", err)
	}
	d.sem.Release(d.maxInFlight)
	return nil
}

func (d *Dispatcher) observe(result string, elapsed time.Duration) {
	if d.metrics != nil {
		d.metrics.ObserveDelivery(result, elapsed)
	}
}

func (d *Dispatcher) record(messageID string, decision domain.Decision, detail string) {
	if d.audit == nil {
		return
	}
	entry := domain.NewAuditEntry(domain.AuditDeliveryFailed, string(decision.Chat), messageID, detail, time.Now())
	if err := d.audit.Store(entry); err != nil {
		d.log.Error("Failed to journal delivery failure", "message_id", messageID, "error", err)
	}
}
