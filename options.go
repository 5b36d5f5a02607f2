package mcint

import "github.com/arloliu/mcint/integrand"

// Option configures an Engine with optional dependencies.
type Option func(*engineOptions)

type engineOptions struct {
	logger      Logger
	metrics     MetricsCollector
	hooks       *Hooks
	registry    *integrand.Registry
	partitioner Partitioner
	sink        ResultSink
}

// WithLogger sets the logger.
//
// Example:
//
//	engine, err := mcint.NewEngine(&cfg, comm, mcint.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "mcint")
//	engine, err := mcint.NewEngine(&cfg, comm, mcint.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *engineOptions) {
		o.metrics = metrics
	}
}

// WithHooks sets lifecycle hooks. Nil callbacks are ignored.
//
// Example:
//
//	hooks := &mcint.Hooks{
//	    OnFinalized: func(ctx context.Context, est mcint.Estimate) error {
//	        return publish(est)
//	    },
//	}
//	engine, err := mcint.NewEngine(&cfg, comm, mcint.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *engineOptions) {
		o.hooks = hooks
	}
}

// WithRegistry sets the integrand registry used to resolve IntegrandRef names.
// Every process of a deployment must use an identically populated registry.
// Defaults to integrand.Default().
func WithRegistry(registry *integrand.Registry) Option {
	return func(o *engineOptions) {
		o.registry = registry
	}
}

// WithPartitioner replaces the even partitioner used at both tiers.
// The partitioner must be deterministic: every process computes the same split.
func WithPartitioner(p Partitioner) Option {
	return func(o *engineOptions) {
		o.partitioner = p
	}
}

// WithResultSink sets where the coordinator writes finalized estimates.
// Defaults to sink.Discard.
func WithResultSink(s ResultSink) Option {
	return func(o *engineOptions) {
		o.sink = s
	}
}
