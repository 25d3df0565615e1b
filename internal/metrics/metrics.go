// Package metrics defines the Prometheus instrumentation for the backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsTotal counts settlement calls by outcome
	// (ok, not_found, invalid, error).
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanabota_settlements_total",
		Help: "Number of POS settlement calls by outcome.",
	}, []string{"outcome"})

	// TanabotaYenTotal accumulates the windfall yen written to the ledger.
	TanabotaYenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanabota_yen_total",
		Help: "Total windfall savings written to the ledger, in yen.",
	})

	// RuleExecutions counts ledger log rows by action type.
	RuleExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanabota_rule_executions_total",
		Help: "Number of rule executions logged, by action type.",
	}, []string{"action_type"})

	// RequestDuration observes HTTP handling latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tanabota_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
