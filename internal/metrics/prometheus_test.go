package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/mcint/types"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordStateTransition(types.StateSampling, types.StateCombining, 0.5)
	p.RecordStateTransition(types.StateSampling, types.StateCombining, 0.25)
	p.RecordInvocation("finalized", 1)
	p.RecordSamples(1000)
	p.RecordSamples(24)
	p.RecordWorkerDuration("thread", 0.1)
	p.RecordActiveWorkers(4)
	p.RecordReductionFailure("process")
	p.RecordTransportOperation("reduce", 0.01)

	require.InDelta(t, 2.0, testutil.ToFloat64(p.stateTransitions.WithLabelValues("Sampling", "Combining")), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(p.invocations.WithLabelValues("finalized")), 0)
	require.InDelta(t, 1024.0, testutil.ToFloat64(p.samples), 0)
	require.InDelta(t, 4.0, testutil.ToFloat64(p.activeWorkers), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(p.reductionFailures.WithLabelValues("process")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 9)
}

func TestNewPrometheus_Defaults(t *testing.T) {
	p := NewPrometheus(nil, "")
	require.Equal(t, "mcint", p.namespace)
	require.Equal(t, prometheus.DefaultRegisterer, p.reg)
}
