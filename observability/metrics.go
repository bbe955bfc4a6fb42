package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	hostMetricsOnce sync.Once
	hostRegistry    *HostMetrics

	rpcMetricsOnce sync.Once
	rpcRegistry    *RPCMetrics
)

// HostMetrics tracks contract execution inside the host.
type HostMetrics struct {
	invocations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	throttles   *prometheus.CounterVec
	deferred    *prometheus.CounterVec
	pending     prometheus.Gauge
	height      prometheus.Gauge
}

// Host returns the lazily-initialised host metrics registry.
func Host() *HostMetrics {
	hostMetricsOnce.Do(func() {
		hostRegistry = &HostMetrics{
			invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "invocations_total",
				Help:      "Contract method executions segmented by contract, method, kind and outcome.",
			}, []string{"contract", "method", "kind", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "invocation_duration_seconds",
				Help:      "Latency distribution of contract method executions.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"contract", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "throttles_total",
				Help:      "Invocations refused before execution, segmented by reason.",
			}, []string{"reason"}),
			deferred: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "deferred_calls_total",
				Help:      "Deferred calls segmented by lifecycle stage.",
			}, []string{"stage"}),
			pending: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "deferred_pending",
				Help:      "Deferred calls waiting for delivery.",
			}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "contractkit",
				Subsystem: "host",
				Name:      "block_height",
				Help:      "Current host block height.",
			}),
		}
		prometheus.MustRegister(
			hostRegistry.invocations,
			hostRegistry.latency,
			hostRegistry.throttles,
			hostRegistry.deferred,
			hostRegistry.pending,
			hostRegistry.height,
		)
	})
	return hostRegistry
}

// ObserveInvocation records one method execution. Nested calls are recorded
// individually.
func (m *HostMetrics) ObserveInvocation(contract, method, kind string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.invocations.WithLabelValues(contract, method, kind, outcome).Inc()
	m.latency.WithLabelValues(contract, method).Observe(duration.Seconds())
}

// RecordThrottle counts a refused invocation. Reasons should be stable
// strings such as "rate_limit" or "paused".
func (m *HostMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// RecordDeferred counts a deferred call reaching stage ("queued",
// "delivered", "failed" or "dropped").
func (m *HostMetrics) RecordDeferred(stage string) {
	if m == nil {
		return
	}
	m.deferred.WithLabelValues(stage).Inc()
}

func (m *HostMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *HostMetrics) SetHeight(h uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(h))
}

// RPCMetrics tracks JSON-RPC traffic.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// RPC returns the lazily-initialised JSON-RPC metrics registry.
func RPC() *RPCMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "contractkit",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "contractkit",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.latency)
	})
	return rpcRegistry
}

func (m *RPCMetrics) Observe(method string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}
