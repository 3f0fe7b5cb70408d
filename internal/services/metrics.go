// Package services – polling metrics
//
// Prometheus collectors for the polling loop. Label values are bounded: the
// outcome set of domain.Cycle, the domain error kinds, and sent/failed.
package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/homework-bot/internal/domain"
)

var (
	// cyclesTotal counts finished cycles by outcome (idle, notified, failed).
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_bot_cycles_total",
			Help: "Total number of polling cycles by outcome.",
		},
		[]string{"outcome"},
	)

	// cycleErrors counts failed cycles by error kind.
	cycleErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_bot_cycle_errors_total",
			Help: "Total number of failed polling cycles by error kind.",
		},
		[]string{"kind"},
	)

	// notifications counts Telegram send attempts by result (sent, failed).
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_bot_notifications_total",
			Help: "Total number of Telegram send attempts by result.",
		},
		[]string{"result"},
	)

	// cycleDuration covers fetch through notify. Upstream calls dominate.
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "homework_bot_cycle_duration_seconds",
			Help:    "Duration of polling cycles in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// lastCycle is the UNIX time the most recent cycle finished.
	lastCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "homework_bot_last_cycle_timestamp_seconds",
			Help: "UNIX time at which the last polling cycle finished.",
		},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal, cycleErrors, notifications, cycleDuration, lastCycle)
}

func observeCycle(c domain.Cycle, notified bool) {
	cyclesTotal.WithLabelValues(c.Outcome).Inc()
	if c.ErrorKind != "" {
		cycleErrors.WithLabelValues(c.ErrorKind).Inc()
	}
	if notified {
		if c.Delivered {
			notifications.WithLabelValues("sent").Inc()
		} else {
			notifications.WithLabelValues("failed").Inc()
		}
	}
	cycleDuration.Observe(c.Duration().Seconds())
	lastCycle.Set(float64(c.FinishedAt.UnixNano()) / float64(time.Second))
}
