package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/mcint/internal/backoff"
	"github.com/arloliu/mcint/internal/logger"
	"github.com/arloliu/mcint/internal/metrics"
	"github.com/arloliu/mcint/internal/natsutil"
	"github.com/arloliu/mcint/types"
)

// Defaults for NATSConfig fields left zero.
const (
	DefaultSubjectPrefix  = "mcint"
	DefaultGroup          = "default"
	DefaultRequestTimeout = 2 * time.Second
	DefaultRejoinInterval = 5 * time.Second

	inboxBuffer = 64
)

// NATSConfig configures a NATS communicator.
type NATSConfig struct {
	// Group isolates deployments sharing one NATS server.
	Group string

	// Rank of this process, 0 for the coordinator.
	Rank int

	// Size is the number of processes in the group.
	Size int

	// SubjectPrefix is the first subject token.
	SubjectPrefix string

	// RequestTimeout bounds a single join or partial request.
	RequestTimeout time.Duration

	// RejoinInterval is how often a rank waiting for parameters repeats its join.
	RejoinInterval time.Duration

	// JoinBackoffBase and JoinBackoffMax bound the jittered delay between failed requests.
	JoinBackoffBase time.Duration
	JoinBackoffMax  time.Duration
}

// SetDefaults fills zero fields.
func (c *NATSConfig) SetDefaults() {
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RejoinInterval <= 0 {
		c.RejoinInterval = DefaultRejoinInterval
	}
	if c.JoinBackoffBase <= 0 {
		c.JoinBackoffBase = backoff.DefaultBase
	}
	if c.JoinBackoffMax <= 0 {
		c.JoinBackoffMax = backoff.DefaultCap
	}
}

// Validate checks rank and size.
func (c *NATSConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: cluster size must be >= 1, got %d", types.ErrInvalidConfig, c.Size)
	}
	if c.Rank < 0 || c.Rank >= c.Size {
		return fmt.Errorf("%w: rank %d outside [0, %d)", types.ErrInvalidConfig, c.Rank, c.Size)
	}

	return nil
}

// NATSOption configures optional NATS communicator dependencies.
type NATSOption func(*NATS)

// WithNATSLogger sets the logger.
func WithNATSLogger(l types.Logger) NATSOption {
	return func(n *NATS) { n.logger = l }
}

// WithNATSMetrics sets the metrics collector for transport latencies.
func WithNATSMetrics(m types.MetricsCollector) NATSOption {
	return func(n *NATS) { n.metrics = m }
}

type joinRequest struct {
	Rank int `json:"rank"`
}

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type partial struct {
	InvocationID string             `json:"invocationId"`
	Contribution types.Contribution `json:"contribution"`
}

type pendingJoin struct {
	rank     int
	received time.Time
	msg      *nats.Msg
}

// NATS is a communicator whose ranks exchange messages through a NATS server.
type NATS struct {
	nc      *nats.Conn
	cfg     NATSConfig
	logger  types.Logger
	metrics types.MetricsCollector
	policy  backoff.Policy

	joinSubject    string
	paramsSubject  string
	partialSubject string

	joins    chan pendingJoin
	partials chan partial
	params   chan types.Message

	subs      []*nats.Subscription
	done      chan struct{}
	closeOnce sync.Once
}

var _ types.Communicator = (*NATS)(nil)

// NewNATS creates a communicator and installs its subscriptions.
//
// The coordinator subscribes to join and partial subjects. Every other rank subscribes
// to the parameter subject before it ever sends a join, so a published parameter
// message cannot miss a rank the coordinator counted as joined.
//
// Parameters:
//   - nc: Connected NATS client, owned by the caller
//   - cfg: Group membership and timing
//   - opts: Optional logger and metrics
//
// Returns:
//   - *NATS: Ready communicator; call Close to unsubscribe
//   - error: Invalid configuration or subscription failure
func NewNATS(nc *nats.Conn, cfg NATSConfig, opts ...NATSOption) (*NATS, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: nats connection is required", types.ErrInvalidConfig)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.SubjectPrefix + "." + cfg.Group
	n := &NATS{
		nc:             nc,
		cfg:            cfg,
		logger:         logger.NewNop(),
		metrics:        metrics.NewNop(),
		policy:         backoff.Policy{Base: cfg.JoinBackoffBase, Multiplier: backoff.DefaultMultiplier, Cap: cfg.JoinBackoffMax},
		joinSubject:    base + ".join",
		paramsSubject:  base + ".params",
		partialSubject: base + ".partials",
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}

	if err := n.subscribe(); err != nil {
		n.Close()
		return nil, err
	}

	return n, nil
}

func (n *NATS) subscribe() error {
	if n.cfg.Rank == 0 {
		n.joins = make(chan pendingJoin, inboxBuffer)
		n.partials = make(chan partial, inboxBuffer)

		sub, err := n.nc.Subscribe(n.joinSubject, n.handleJoin)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", n.joinSubject, err)
		}
		n.subs = append(n.subs, sub)

		sub, err = n.nc.Subscribe(n.partialSubject, n.handlePartial)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", n.partialSubject, err)
		}
		n.subs = append(n.subs, sub)
	} else {
		n.params = make(chan types.Message, 4)

		sub, err := n.nc.Subscribe(n.paramsSubject, n.handleParams)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", n.paramsSubject, err)
		}
		n.subs = append(n.subs, sub)
	}

	// the server must know about our interest before anyone relies on it
	if err := n.nc.Flush(); err != nil {
		return fmt.Errorf("%w: flush subscriptions: %w", types.ErrConnectivity, err)
	}

	return nil
}

// Close removes the subscriptions. The NATS connection stays open.
func (n *NATS) Close() {
	n.closeOnce.Do(func() {
		close(n.done)
		for _, sub := range n.subs {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				n.logger.Debug("unsubscribe failed", "subject", sub.Subject, "error", err)
			}
		}
	})
}

func (n *NATS) Rank() int { return n.cfg.Rank }

func (n *NATS) Size() int { return n.cfg.Size }

// Broadcast distributes msg from the coordinator.
//
// The coordinator waits until every other rank joined, acknowledges each join and then
// publishes msg. Other ranks join with retried requests and wait for the parameters,
// repeating the join every RejoinInterval in case the coordinator restarted its round.
func (n *NATS) Broadcast(ctx context.Context, msg types.Message) (types.Message, error) {
	start := time.Now()
	defer func() { n.metrics.RecordTransportOperation("broadcast", time.Since(start).Seconds()) }()

	if n.cfg.Rank == 0 {
		return msg, n.broadcastParams(ctx, msg)
	}

	return n.awaitParams(ctx)
}

func (n *NATS) broadcastParams(ctx context.Context, msg types.Message) error {
	joined := make(map[int]struct{}, n.cfg.Size-1)
	for len(joined) < n.cfg.Size-1 {
		select {
		case j := <-n.joins:
			// the requester gave up on this one and has retried since
			if time.Since(j.received) > n.cfg.RequestTimeout {
				continue
			}
			if err := respond(j.msg, ack{OK: true}); err != nil {
				n.logger.Debug("join acknowledgement failed", "rank", j.rank, "error", err)
				continue
			}
			if _, dup := joined[j.rank]; !dup {
				joined[j.rank] = struct{}{}
				n.logger.Debug("rank joined", "group", n.cfg.Group, "rank", j.rank, "joined", len(joined))
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d ranks joined: %w", types.ErrConnectivity, len(joined), n.cfg.Size-1, ctx.Err())
		case <-n.done:
			return fmt.Errorf("%w: communicator closed", types.ErrConnectivity)
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if err := n.nc.Publish(n.paramsSubject, data); err != nil {
		return fmt.Errorf("%w: publish parameters: %w", types.ErrConnectivity, err)
	}
	if err := n.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: flush parameters: %w", types.ErrConnectivity, err)
	}

	n.logger.Info("parameters broadcast", "group", n.cfg.Group, "invocation_id", msg.InvocationID, "ranks", n.cfg.Size)

	return nil
}

func (n *NATS) awaitParams(ctx context.Context) (types.Message, error) {
	// anything already queued belongs to a round this rank did not join
	for drained := false; !drained; {
		select {
		case stale := <-n.params:
			n.logger.Debug("dropping stale parameters", "invocation_id", stale.InvocationID)
		default:
			drained = true
		}
	}

	joinStart := time.Now()
	if err := n.join(ctx); err != nil {
		return types.Message{}, err
	}
	n.metrics.RecordTransportOperation("join", time.Since(joinStart).Seconds())

	rejoin := time.NewTicker(n.cfg.RejoinInterval)
	defer rejoin.Stop()

	for {
		select {
		case msg := <-n.params:
			return msg, nil
		case <-rejoin.C:
			if _, err := n.request(ctx, n.joinSubject, joinRequest{Rank: n.cfg.Rank}); err != nil {
				n.logger.Debug("rejoin failed", "rank", n.cfg.Rank, "error", err)
			}
		case <-ctx.Done():
			return types.Message{}, fmt.Errorf("rank %d waiting for parameters: %w", n.cfg.Rank, ctx.Err())
		case <-n.done:
			return types.Message{}, fmt.Errorf("%w: communicator closed", types.ErrConnectivity)
		}
	}
}

func (n *NATS) join(ctx context.Context) error {
	if err := n.requestWithRetry(ctx, n.joinSubject, joinRequest{Rank: n.cfg.Rank}); err != nil {
		return fmt.Errorf("%w: rank %d join: %w", types.ErrConnectivity, n.cfg.Rank, err)
	}
	n.logger.Debug("joined group", "group", n.cfg.Group, "rank", n.cfg.Rank)

	return nil
}

// Reduce collects contributions on the coordinator and submits one elsewhere.
//
// Contributions tagged with another invocation ID are ignored. The first failed
// contribution aborts the reduction.
func (n *NATS) Reduce(ctx context.Context, invocationID string, c types.Contribution) (types.Contribution, error) {
	start := time.Now()
	defer func() { n.metrics.RecordTransportOperation("reduce", time.Since(start).Seconds()) }()

	c.Rank = n.cfg.Rank

	if n.cfg.Rank != 0 {
		if err := n.requestWithRetry(ctx, n.partialSubject, partial{InvocationID: invocationID, Contribution: c}); err != nil {
			return types.Contribution{}, fmt.Errorf("%w: rank %d submit: %w", types.ErrReductionFailure, n.cfg.Rank, err)
		}

		return types.Contribution{}, nil
	}

	if c.Failed() {
		return types.Contribution{}, contributionError(c)
	}

	got := make(map[int]types.Contribution, n.cfg.Size)
	got[0] = c
	for len(got) < n.cfg.Size {
		select {
		case p := <-n.partials:
			if p.InvocationID != invocationID {
				n.logger.Debug("ignoring stale contribution",
					"rank", p.Contribution.Rank, "invocation_id", p.InvocationID, "current", invocationID)

				continue
			}
			if p.Contribution.Failed() {
				return types.Contribution{}, contributionError(p.Contribution)
			}
			got[p.Contribution.Rank] = p.Contribution
		case <-ctx.Done():
			return types.Contribution{}, fmt.Errorf("%w: %d of %d ranks contributed: %w",
				types.ErrReductionFailure, len(got), n.cfg.Size, ctx.Err())
		case <-n.done:
			return types.Contribution{}, fmt.Errorf("%w: communicator closed", types.ErrReductionFailure)
		}
	}

	return Combine(n.cfg.Size, mapValues(got))
}

func (n *NATS) handleJoin(msg *nats.Msg) {
	var req joinRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Rank < 1 || req.Rank >= n.cfg.Size {
		_ = respond(msg, ack{Error: fmt.Sprintf("invalid join request for group of size %d", n.cfg.Size)})
		return
	}

	select {
	case n.joins <- pendingJoin{rank: req.Rank, received: time.Now(), msg: msg}:
	case <-n.done:
	}
}

func (n *NATS) handlePartial(msg *nats.Msg) {
	var p partial
	if err := json.Unmarshal(msg.Data, &p); err != nil || p.Contribution.Rank < 1 || p.Contribution.Rank >= n.cfg.Size {
		_ = respond(msg, ack{Error: "invalid contribution"})
		return
	}

	if err := respond(msg, ack{OK: true}); err != nil {
		n.logger.Debug("partial acknowledgement failed", "rank", p.Contribution.Rank, "error", err)
	}

	select {
	case n.partials <- p:
	case <-n.done:
	}
}

func (n *NATS) handleParams(msg *nats.Msg) {
	var m types.Message
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		n.logger.Warn("undecodable parameters", "subject", msg.Subject, "error", err)
		return
	}

	select {
	case n.params <- m:
	case <-n.done:
	}
}

// requestWithRetry sends v until it is acknowledged, backing off on retryable errors.
func (n *NATS) requestWithRetry(ctx context.Context, subject string, v any) error {
	delays := backoff.NewSequence(n.policy, 0)
	for {
		a, err := n.request(ctx, subject, v)
		if err == nil {
			if !a.OK {
				return fmt.Errorf("rejected by coordinator: %s", a.Error)
			}

			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !natsutil.IsRetryable(err) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		wait := delays.Next()
		n.logger.Debug("request retry", "subject", subject, "delay", wait, "error", err)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		case <-n.done:
			return fmt.Errorf("%w: communicator closed", types.ErrConnectivity)
		}
	}
}

func (n *NATS) request(ctx context.Context, subject string, v any) (ack, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ack{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, n.cfg.RequestTimeout)
	defer cancel()

	reply, err := n.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return ack{}, err
	}

	var a ack
	if err := json.Unmarshal(reply.Data, &a); err != nil {
		return ack{}, fmt.Errorf("decode acknowledgement: %w", err)
	}

	return a, nil
}

func respond(msg *nats.Msg, a ack) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	return msg.Respond(data)
}
