// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/mcint/types"

// NopMetrics discards all metrics.
//
// Example:
//
//	engine, err := mcint.NewEngine(cfg, comm, mcint.WithMetrics(metrics.NewNop()))
type NopMetrics struct{}

var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a no-op collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// InvocationMetrics implementation

// RecordStateTransition discards the transition.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State, _ /* duration */ float64) {
}

// RecordInvocation discards the outcome.
func (n *NopMetrics) RecordInvocation(_ /* outcome */ string, _ /* duration */ float64) {}

// WorkerMetrics implementation

// RecordSamples discards the sample count.
func (n *NopMetrics) RecordSamples(_ /* count */ uint64) {}

// RecordWorkerDuration discards the duration.
func (n *NopMetrics) RecordWorkerDuration(_ /* tier */ string, _ /* duration */ float64) {}

// RecordActiveWorkers discards the gauge.
func (n *NopMetrics) RecordActiveWorkers(_ /* count */ int) {}

// ReductionMetrics implementation

// RecordReductionFailure discards the failure.
func (n *NopMetrics) RecordReductionFailure(_ /* tier */ string) {}

// RecordTransportOperation discards the latency.
func (n *NopMetrics) RecordTransportOperation(_ /* operation */ string, _ /* duration */ float64) {}
