package runtime

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type RelayOptions struct {
	BufferSize    int
	ReplyTimeout  time.Duration
	ShutdownGrace time.Duration
	MetricsAddr   string // empty disables the metrics endpoint
	// HeartbeatInterval is the sampling period of queue and process stats,
	// zero disables it.
	HeartbeatInterval time.Duration
}

// Relay owns the lifecycle: authenticate the source once, run the poller and
// the event loop under supervision, then drain deliveries and release the
// source on shutdown.
type Relay struct {
	log        *slog.Logger
	supervisor contract.ISupervisor
	source     contract.Source
	store      contract.IConfigStore
	admin      *services.AdminService
	dispatcher contract.IDispatcher
	metrics    *observability.Metrics
	options    RelayOptions
}

func NewRelay(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	source contract.Source,
	store contract.IConfigStore,
	admin *services.AdminService,
	dispatcher contract.IDispatcher,
	metrics *observability.Metrics,
	options RelayOptions) *Relay {
	return &Relay{
		log:        log,
		supervisor: supervisor,
		source:     source,
		store:      store,
		admin:      admin,
		dispatcher: dispatcher,
		metrics:    metrics,
		options:    options,
	}
}

// Run blocks until ctx is done or every worker has stopped.
func (r *Relay) Run(ctx context.Context) error {
	// 1. One-time session establishment, fatal on failure
	if err := r.source.Authenticate(ctx); err != nil {
		return err
	}
	r.log.Info("Source platform session established")

	// 2. Workers
	events := make(chan contract.Event, r.options.BufferSize)
	r.supervisor.Add(
		workers.NewSourcePollerWorker(r.log, r.source, events),
		workers.NewEventLoopWorker(r.log, events, r.store, r.admin, r.dispatcher, r.source, r.metrics, r.options.ReplyTimeout),
	)
	if r.options.MetricsAddr != "" {
		r.supervisor.Add(workers.NewMetricsServerWorker(r.log, r.options.MetricsAddr, r.metrics.Handler()))
	}
	if r.options.HeartbeatInterval > 0 {
		r.supervisor.Add(workers.NewHeartbeatWorker(r.log, events, r.metrics, r.options.HeartbeatInterval))
	}

	// 3. Execution phase
	r.log.Info("Relay running, watching channels")
	r.supervisor.Run(ctx)
	return nil
}

// Shutdown gives in-flight deliveries the grace period, then releases the
// source connection. It is called once Run has returned.
func (r *Relay) Shutdown() error {
	graceCtx, cancel := context.WithTimeout(context.Background(), r.options.ShutdownGrace)
	defer cancel()

	var drainErr error
	if err := r.dispatcher.Drain(graceCtx); err != nil {
		r.log.Warn("Abandoning in-flight deliveries", "error", err)
		drainErr = err
	}
	if err := r.source.Close(); err != nil {
		return fmt.Errorf("closing source: %w", err)
	}
	r.log.Info("Source connection released")
	return drainErr
}
