package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

// HeartbeatWorker periodically samples the event backlog and the process
// footprint (RSS, CPU) into the metrics registry.
// Reading len and cap of the channel is non-blocking, so it never competes
// with the event loop.
type HeartbeatWorker struct {
	log      *slog.Logger
	events   chan contract.Event
	metrics  *observability.Metrics
	interval time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	events chan contract.Event,
	metrics *observability.Metrics,
	interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, events: events, metrics: metrics, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping heartbeat")
			return nil
		case <-ticker.C:
			length, capacity := len(w.events), cap(w.events)
			w.metrics.EventQueueLength.Set(float64(length))

			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Warn("Failed to collect self stats", "error", err)
				continue
			}
			w.metrics.ProcessRSSBytes.Set(float64(rss))
			w.metrics.ProcessCPUPercent.Set(cpu)

			w.log.Debug("Heartbeat", "queue", length, "capacity", capacity, "rss", rss, "cpu", cpu)
			if capacity > 0 && length == capacity {
				w.log.Warn("Event channel is full, polling is blocked", "capacity", capacity)
			}
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
