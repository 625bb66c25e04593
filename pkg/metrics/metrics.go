package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "The total number of outbound webhook delivery attempts",
	}, []string{"event_type", "outcome"})

	WebhookDeliveryTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_delivery_duration_seconds",
		Help:    "Time taken to deliver an event to one subscriber",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})

	PaymentReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "The total number of inbound gateway notifications processed",
	}, []string{"gateway", "outcome"})

	WebhookRedispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_redispatches_total",
		Help: "The total number of failed deliveries replayed by the reaper",
	}, []string{"outcome"})
)
