// Package metrics defines and exposes the Prometheus counters and
// histograms for decision outcomes, capability lifecycle events, cache
// and audit latencies. No verifyd package outside this one updates
// them; they are registered and served with their zero values.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	VerifyDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verify_decisions_total",
		Help: "Total verify_action decisions by outcome and reason code.",
	}, []string{"decision", "reason"})

	CapabilityIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capability_issued_total",
		Help: "Total capabilities issued.",
	})

	CapabilityRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capability_revoked_total",
		Help: "Total capabilities explicitly revoked.",
	})

	RevocationCacheErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "revocation_cache_errors_total",
		Help: "Total revocation-cache lookups that fell through to the durable store.",
	})

	RateLimitExceededTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total requests denied by the rate limiter, by workspace.",
	}, []string{"workspace_id"})

	AuditAppendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_append_duration_seconds",
		Help:    "Latency of appending an audit event, including advisory lock wait.",
		Buckets: prometheus.DefBuckets,
	})

	VerifyRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verify_request_duration_seconds",
		Help:    "End-to-end latency of a verify_action call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})
)

// Collectors returns all verifyd metrics for registration against a
// prometheus.Registerer at startup.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		VerifyDecisionsTotal,
		CapabilityIssuedTotal,
		CapabilityRevokedTotal,
		RevocationCacheErrorsTotal,
		RateLimitExceededTotal,
		AuditAppendDuration,
		VerifyRequestDuration,
	}
}

// Timer measures an operation's duration and records it to an
// observer on Stop.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

func NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{start: time.Now(), observer: observer}
}

func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.observer.Observe(elapsed.Seconds())
	return elapsed
}
