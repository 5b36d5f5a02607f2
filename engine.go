package mcint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/mcint/cluster"
	"github.com/arloliu/mcint/integrand"
	"github.com/arloliu/mcint/internal/backoff"
	"github.com/arloliu/mcint/internal/hooks"
	"github.com/arloliu/mcint/internal/logger"
	"github.com/arloliu/mcint/internal/metrics"
	"github.com/arloliu/mcint/partition"
	"github.com/arloliu/mcint/sink"
)

// Invocation outcomes reported to MetricsCollector.RecordInvocation.
const (
	OutcomeFinalized = "finalized"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
)

// Engine runs integration invocations for one process of a deployment.
//
// An Engine is safe for concurrent use on the coordinator as long as the communicator
// serializes invocations; the bundled communicators expect one invocation at a time.
type Engine struct {
	cfg         Config
	comm        Communicator
	registry    *integrand.Registry
	partitioner Partitioner
	sink        ResultSink
	logger      Logger
	metrics     MetricsCollector
	hooks       Hooks
}

// NewEngine creates an engine bound to comm.
//
// Parameters:
//   - cfg: Configuration; zero fields are filled with defaults
//   - comm: Process-tier communicator, cluster.NewLocal() for a single process
//   - opts: Optional logger, metrics, hooks, registry, partitioner and result sink
//
// Returns:
//   - *Engine: Ready engine
//   - error: ErrInvalidConfig or ErrCommunicatorRequired
//
// Example:
//
//	cfg := mcint.DefaultConfig()
//	engine, err := mcint.NewEngine(&cfg, cluster.NewLocal(), mcint.WithLogger(logger))
func NewEngine(cfg *Config, comm Communicator, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if comm == nil {
		return nil, ErrCommunicatorRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		cfg:         *cfg,
		comm:        comm,
		registry:    options.registry,
		partitioner: options.partitioner,
		sink:        options.sink,
		logger:      options.logger,
		metrics:     options.metrics,
		hooks:       hooks.Fill(options.hooks),
	}
	if e.logger == nil {
		e.logger = logger.NewNop()
	}
	if e.metrics == nil {
		e.metrics = metrics.NewNop()
	}
	if e.registry == nil {
		e.registry = integrand.Default()
	}
	if e.partitioner == nil {
		e.partitioner = partition.NewEven()
	}
	if e.sink == nil {
		e.sink = sink.Discard{}
	}

	cfg.ValidateWithWarnings(e.logger)

	return e, nil
}

// Rank returns this process's rank.
func (e *Engine) Rank() int { return e.comm.Rank() }

// Size returns the number of processes.
func (e *Engine) Size() int { return e.comm.Size() }

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Integrate runs one invocation from the coordinator and returns the estimate.
//
// The parameters are validated before anything is sent, so invalid bounds never reach a
// worker. Afterwards the parameters are broadcast, every process samples its share, and
// the coordinator combines and finalizes.
//
// Parameters:
//   - ctx: Cancelling it fails the invocation on every rank
//   - params: Integrand, bounds and sample budget
//
// Returns:
//   - Estimate: The finalized estimate
//   - error: ErrNotCoordinator off rank 0, a validation error, or the error that failed
//     the invocation
func (e *Engine) Integrate(ctx context.Context, params ParameterSet) (Estimate, error) {
	if !cluster.IsCoordinator(e.comm) {
		return Estimate{}, fmt.Errorf("%w: rank %d", ErrNotCoordinator, e.comm.Rank())
	}

	inv := e.NewInvocation("", params)
	start := time.Now()
	e.logger.Info("invocation started",
		"invocation_id", inv.ID(),
		"integrand", params.Integrand.String(),
		"dimensions", params.Dimensions(),
		"iterations", params.Iterations,
		"processes", e.comm.Size(),
		"threads", e.cfg.Threads,
	)

	if err := inv.Validate(ctx); err != nil {
		e.metrics.RecordInvocation(OutcomeInvalid, time.Since(start).Seconds())
		return Estimate{}, err
	}

	if err := e.broadcast(ctx, inv); err != nil {
		return e.finish(inv, start, Estimate{}, err)
	}

	est, err := e.execute(ctx, inv)

	return e.finish(inv, start, est, err)
}

func (e *Engine) broadcast(ctx context.Context, inv *Invocation) error {
	if e.comm.Size() == 1 {
		return nil
	}

	payload, err := json.Marshal(inv.params)
	if err != nil {
		return inv.fail(ctx, fmt.Errorf("encode parameters: %w", err))
	}

	if _, err := e.comm.Broadcast(ctx, Message{InvocationID: inv.ID(), Payload: payload}); err != nil {
		return inv.fail(ctx, fmt.Errorf("broadcast parameters: %w", err))
	}

	return nil
}

// execute runs the stages after validation.
func (e *Engine) execute(ctx context.Context, inv *Invocation) (Estimate, error) {
	for _, stage := range []func(context.Context) error{inv.Prepare, inv.Partition, inv.Sample, inv.Combine} {
		if err := stage(ctx); err != nil {
			return Estimate{}, err
		}
	}

	return inv.Finalize(ctx)
}

func (e *Engine) finish(inv *Invocation, start time.Time, est Estimate, err error) (Estimate, error) {
	elapsed := time.Since(start)
	if inv.State() != StateFinalized {
		e.metrics.RecordInvocation(OutcomeFailed, elapsed.Seconds())
		e.logger.Error("invocation failed", "invocation_id", inv.ID(), "state", inv.State(), "error", err)

		return Estimate{}, err
	}

	e.metrics.RecordInvocation(OutcomeFinalized, elapsed.Seconds())
	e.logger.Info("invocation finalized",
		"invocation_id", inv.ID(),
		"estimate", est.Value,
		"iterations", est.Iterations,
		"duration", elapsed,
	)

	return est, err
}

// Participate takes part in exactly one invocation on a non-coordinator rank.
//
// It waits for the coordinator's parameters, validates and prepares them locally, samples
// this rank's share and submits the process-tier contribution. A rank that fails after
// receiving the parameters still submits a failed contribution so the coordinator does
// not wait for it.
//
// Returns:
//   - error: ErrIsCoordinator on rank 0, a transport error, or the error that failed the invocation
func (e *Engine) Participate(ctx context.Context) error {
	if cluster.IsCoordinator(e.comm) {
		return ErrIsCoordinator
	}

	msg, err := e.comm.Broadcast(ctx, Message{})
	if err != nil {
		return fmt.Errorf("receive parameters: %w", err)
	}

	var params ParameterSet
	if err := json.Unmarshal(msg.Payload, &params); err != nil {
		err = fmt.Errorf("%w: decode parameters: %w", ErrInvalidConfig, err)
		e.contributeFailure(ctx, msg.InvocationID, err)

		return err
	}

	inv := e.NewInvocation(msg.InvocationID, params)
	e.logger.Debug("invocation received", "invocation_id", inv.ID(), "rank", e.comm.Rank())

	for _, stage := range []func(context.Context) error{inv.Validate, inv.Prepare, inv.Partition, inv.Sample} {
		if err := stage(ctx); err != nil {
			e.contributeFailure(ctx, inv.ID(), err)
			return err
		}
	}

	if err := inv.Combine(ctx); err != nil {
		return err
	}
	_, err = inv.Finalize(ctx)

	return err
}

func (e *Engine) contributeFailure(ctx context.Context, invocationID string, cause error) {
	if ctx.Err() != nil {
		return
	}

	if _, err := e.comm.Reduce(ctx, invocationID, cluster.FailedContribution(e.comm.Rank(), cause)); err != nil {
		e.logger.Warn("reporting failure to coordinator failed", "invocation_id", invocationID, "error", err)
	}
}

// Serve calls Participate in a loop until ctx is cancelled.
//
// A failed invocation is logged and the rank waits for the next one.
//
// Returns:
//   - error: ErrIsCoordinator on rank 0, nil once ctx is done
func (e *Engine) Serve(ctx context.Context) error {
	if cluster.IsCoordinator(e.comm) {
		return ErrIsCoordinator
	}

	e.logger.Info("worker serving", "rank", e.comm.Rank(), "size", e.comm.Size(), "threads", e.cfg.Threads)

	delays := backoff.NewSequence(backoff.Policy{
		Base:       e.cfg.Cluster.JoinBackoff.Base,
		Multiplier: backoff.DefaultMultiplier,
		Cap:        e.cfg.Cluster.JoinBackoff.Max,
	}, 0)

	for {
		err := e.Participate(ctx)
		if ctx.Err() != nil {
			e.logger.Info("worker stopped", "rank", e.comm.Rank())
			return nil
		}
		if err == nil {
			delays.Reset()
			continue
		}

		if !errors.Is(err, ErrConnectivity) {
			e.logger.Error("invocation failed on worker", "rank", e.comm.Rank(), "error", err)
			continue
		}

		wait := delays.Next()
		e.logger.Warn("transport unavailable", "rank", e.comm.Rank(), "retry_in", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil
		}
	}
}

func newInvocationID() string {
	return uuid.NewString()
}
