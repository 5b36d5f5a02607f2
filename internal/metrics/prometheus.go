package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/mcint/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are created and registered lazily on first use.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions   *prometheus.CounterVec
	stateDuration      *prometheus.HistogramVec
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	samples            prometheus.Counter
	workerDuration     *prometheus.HistogramVec
	activeWorkers      prometheus.Gauge
	reductionFailures  *prometheus.CounterVec
	transportLatency   *prometheus.HistogramVec
}

var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed collector.
//
// Parameters:
//   - reg: Registerer, prometheus.DefaultRegisterer when nil
//   - namespace: Metric namespace, "mcint" when empty
//
// Returns:
//   - *PrometheusCollector: Collector ready for use
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mcint"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "invocation",
			Name:      "state_transitions_total",
			Help:      "Total lifecycle transitions by source and target state.",
		}, []string{"from", "to"})

		p.stateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "invocation",
			Name:      "state_duration_seconds",
			Help:      "Time spent in a lifecycle state before leaving it.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
		}, []string{"state"})

		p.invocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "invocation",
			Name:      "total",
			Help:      "Total invocations by outcome (finalized,failed,invalid).",
		}, []string{"outcome"})

		p.invocationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "invocation",
			Name:      "duration_seconds",
			Help:      "Wall time of invocations by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 12),
		}, []string{"outcome"})

		p.samples = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "samples_total",
			Help:      "Total integrand evaluations performed by this process.",
		})

		p.workerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "duration_seconds",
			Help:      "Time for a worker to exhaust its share, by tier (thread,process).",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 12),
		}, []string{"tier"})

		p.activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "active",
			Help:      "Sampling threads currently running.",
		})

		p.reductionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "reduction",
			Name:      "failures_total",
			Help:      "Aborted reductions by tier (thread,process).",
		}, []string{"tier"})

		p.transportLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "transport",
			Name:      "operation_seconds",
			Help:      "Latency of process-tier operations (join,broadcast,reduce).",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.stateDuration)
		p.reg.MustRegister(p.invocations)
		p.reg.MustRegister(p.invocationDuration)
		p.reg.MustRegister(p.samples)
		p.reg.MustRegister(p.workerDuration)
		p.reg.MustRegister(p.activeWorkers)
		p.reg.MustRegister(p.reductionFailures)
		p.reg.MustRegister(p.transportLatency)
	})
}

// InvocationMetrics implementation

// RecordStateTransition counts the transition and observes time spent in from.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State, duration float64) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	p.stateDuration.WithLabelValues(from.String()).Observe(duration)
}

// RecordInvocation counts a finished invocation and observes its duration.
func (p *PrometheusCollector) RecordInvocation(outcome string, duration float64) {
	p.ensureRegistered()
	p.invocations.WithLabelValues(outcome).Inc()
	p.invocationDuration.WithLabelValues(outcome).Observe(duration)
}

// WorkerMetrics implementation

// RecordSamples adds count to the sample counter.
func (p *PrometheusCollector) RecordSamples(count uint64) {
	p.ensureRegistered()
	p.samples.Add(float64(count))
}

// RecordWorkerDuration observes a worker run time.
func (p *PrometheusCollector) RecordWorkerDuration(tier string, duration float64) {
	p.ensureRegistered()
	p.workerDuration.WithLabelValues(tier).Observe(duration)
}

// RecordActiveWorkers sets the active worker gauge.
func (p *PrometheusCollector) RecordActiveWorkers(count int) {
	p.ensureRegistered()
	p.activeWorkers.Set(float64(count))
}

// ReductionMetrics implementation

// RecordReductionFailure counts an aborted reduction.
func (p *PrometheusCollector) RecordReductionFailure(tier string) {
	p.ensureRegistered()
	p.reductionFailures.WithLabelValues(tier).Inc()
}

// RecordTransportOperation observes transport latency.
func (p *PrometheusCollector) RecordTransportOperation(operation string, duration float64) {
	p.ensureRegistered()
	p.transportLatency.WithLabelValues(operation).Observe(duration)
}
