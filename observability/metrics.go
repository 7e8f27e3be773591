package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay counters on a private registry, so several
// instances (tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	RoutingDecisions *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
	AdminCommands    *prometheus.CounterVec
	EventPanics      prometheus.Counter

	EventQueueLength  prometheus.Gauge
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RoutingDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_routing_decisions_total",
				Help: "Routing decisions per outcome",
			},
			[]string{"action", "reason"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_deliveries_total",
				Help: "Delivery attempts to the destination per result",
			},
			[]string{"result"}, // "ok", "rejected" or "error"
		),
		DeliveryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_delivery_duration_seconds",
				Help:    "Delivery call duration",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		AdminCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_admin_commands_total",
				Help: "Admin commands per command and outcome",
			},
			[]string{"command", "outcome"},
		),
		EventPanics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_event_panics_total",
				Help: "Inbound events whose processing panicked",
			},
		),
		EventQueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_event_queue_length",
			Help: "Events waiting for the event loop",
		}),
		ProcessRSSBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_process_rss_bytes",
			Help: "Resident memory of the relay process",
		}),
		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_process_cpu_percent",
			Help: "CPU usage of the relay process",
		}),
	}
}

func (m *Metrics) ObserveDelivery(result string, elapsed time.Duration) {
	m.Deliveries.WithLabelValues(result).Inc()
	m.DeliveryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
