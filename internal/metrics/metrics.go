package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records transfer outcomes for monitoring.
type Collector struct {
	transfersTotal   *prometheus.CounterVec
	transferDuration prometheus.Histogram
	outboxPublished  prometheus.Counter
	outboxFailures   prometheus.Counter
}

// NewCollector creates the transfer metrics and registers them with reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		transfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of transfer attempts by outcome code",
			},
			[]string{"outcome"},
		),
		transferDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Duration of transfer units of work",
				Buckets:   prometheus.DefBuckets,
			},
		),
		outboxPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_messages_published_total",
				Help:      "Total number of outbox messages published to Kafka",
			},
		),
		outboxFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_publish_failures_total",
				Help:      "Total number of outbox publish failures",
			},
		),
	}
	reg.MustRegister(c.transfersTotal, c.transferDuration, c.outboxPublished, c.outboxFailures)
	return c
}

// NewNopCollector returns a collector backed by an unregistered registry,
// for tests and callers that do not export metrics.
func NewNopCollector() *Collector {
	return NewCollector("bank", prometheus.NewRegistry())
}

func (c *Collector) RecordTransfer(outcome string, duration time.Duration) {
	c.transfersTotal.WithLabelValues(outcome).Inc()
	c.transferDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordOutboxPublished(n int) {
	c.outboxPublished.Add(float64(n))
}

func (c *Collector) RecordOutboxFailure() {
	c.outboxFailures.Inc()
}
