package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/mcint/internal/kvutil"
	"github.com/arloliu/mcint/internal/natsutil"
	"github.com/arloliu/mcint/types"
)

// DefaultBucket is the KV bucket used when KVConfig.Bucket is empty.
const DefaultBucket = "mcint-results"

// KVConfig configures the JetStream result bucket.
type KVConfig struct {
	Bucket   string
	TTL      time.Duration
	Replicas int
}

// KV stores estimates as JSON in a JetStream key-value bucket.
type KV struct {
	kv jetstream.KeyValue
}

var _ types.ResultSink = (*KV)(nil)

// NewKV creates or opens the result bucket.
//
// Concurrent coordinators may race to create the bucket; the bucket is created once
// and opened by everyone else.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - nc: Connected NATS client with JetStream enabled on the server
//   - cfg: Bucket name, TTL and replica count
//
// Returns:
//   - *KV: Sink bound to the bucket
//   - error: JetStream or connectivity failure
func NewKV(ctx context.Context, nc *nats.Conn, cfg KVConfig) (*KV, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Replicas <= 0 {
		cfg.Replicas = 1
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "mcint finalized estimates",
		TTL:         cfg.TTL,
		History:     1,
		Replicas:    cfg.Replicas,
	}, 3)
	if err != nil {
		if natsutil.IsConnectivityError(err) {
			return nil, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
		}

		return nil, err
	}

	return &KV{kv: kv}, nil
}

// NewKVFromBucket wraps an existing bucket.
func NewKVFromBucket(kv jetstream.KeyValue) *KV {
	return &KV{kv: kv}
}

// Store writes est under its invocation ID.
func (s *KV) Store(ctx context.Context, est types.Estimate) error {
	data, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("encode estimate: %w", err)
	}

	if _, err := s.kv.Put(ctx, est.InvocationID, data); err != nil {
		return fmt.Errorf("store estimate %s: %w", est.InvocationID, err)
	}

	return nil
}

// Get reads the estimate stored for invocationID.
//
// Returns:
//   - types.Estimate: Stored estimate
//   - bool: false when no estimate exists for invocationID
//   - error: Decode or JetStream failure
func (s *KV) Get(ctx context.Context, invocationID string) (types.Estimate, bool, error) {
	entry, err := s.kv.Get(ctx, invocationID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return types.Estimate{}, false, nil
	}
	if err != nil {
		return types.Estimate{}, false, err
	}

	var est types.Estimate
	if err := json.Unmarshal(entry.Value(), &est); err != nil {
		return types.Estimate{}, false, fmt.Errorf("decode estimate %s: %w", invocationID, err)
	}

	return est, true, nil
}

// Keys lists the invocation IDs with stored estimates.
func (s *KV) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}

	return keys, err
}

// Watch streams estimates as they are stored.
//
// Unless updatesOnly is set, estimates already in the bucket are delivered first.
// Entries that do not decode as an Estimate are skipped. The channel is closed once
// ctx is done.
//
// Example:
//
//	estimates, err := results.Watch(ctx, true)
//	for est := range estimates {
//	    fmt.Printf("%s = %g\n", est.InvocationID, est.Value)
//	}
func (s *KV) Watch(ctx context.Context, updatesOnly bool) (<-chan types.Estimate, error) {
	var opts []jetstream.WatchOpt
	if updatesOnly {
		opts = append(opts, jetstream.UpdatesOnly())
	}

	watcher, err := s.kv.WatchAll(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("watch results: %w", err)
	}

	out := make(chan types.Estimate)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Stop() }()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values
				if entry == nil || entry.Operation() != jetstream.KeyValuePut {
					continue
				}

				var est types.Estimate
				if err := json.Unmarshal(entry.Value(), &est); err != nil {
					continue
				}

				select {
				case out <- est:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
