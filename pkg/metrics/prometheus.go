package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estagio_document_transitions_total",
			Help: "Document status transitions by resulting status",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estagio_notifications_sent_total",
			Help: "Notifications delivered by kind",
		},
		[]string{"kind"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estagio_notification_failures_total",
			Help: "Notification deliveries that failed by kind",
		},
		[]string{"kind"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "estagio_deadline_sweep_duration_seconds",
			Help:    "Deadline sweep duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	SweepSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estagio_deadline_sweep_skipped_total",
			Help: "Documents skipped by the deadline sweep by reason",
		},
		[]string{"reason"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estagio_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)
)

const (
	KindTransition = "transicao"
	KindDeadline   = "prazo"
)
