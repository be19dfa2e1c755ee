package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	callbacksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_processed_total",
		Help: "Payment callbacks accepted and reconciled, by provider and outcome.",
	}, []string{"provider", "outcome"})

	callbacksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_rejected_total",
		Help: "Payment callbacks rejected before or during reconciliation, by provider and reason.",
	}, []string{"provider", "reason"})

	callbacksIgnored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_ignored_total",
		Help: "Payment callbacks acknowledged without processing, by provider.",
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(callbacksProcessed, callbacksRejected, callbacksIgnored)
}
