// internal/infra/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freshly_items_added_total",
			Help: "Total number of tracked items created",
		},
	)

	ItemsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshly_items_rejected_total",
			Help: "Total number of rejected add requests",
		},
		[]string{"reason"},
	)

	ItemsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freshly_items_purged_total",
			Help: "Total number of expired items removed by the retention job",
		},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshly_reminders_sent_total",
			Help: "Total number of reminders delivered",
		},
		[]string{"threshold"},
	)

	RemindersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshly_reminders_failed_total",
			Help: "Total number of reminders that could not be delivered",
		},
		[]string{"threshold"},
	)

	ScheduledJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "freshly_scheduled_jobs",
			Help: "Number of pending one-shot reminder jobs",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "freshly_job_duration_seconds",
			Help: "Duration of scheduled job runs in seconds",
		},
		[]string{"job"},
	)
)
