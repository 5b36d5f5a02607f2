// Package kvutil provides helpers for NATS JetStream key-value buckets.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/mcint/internal/backoff"
)

const defaultMaxRetries = 3

var retryPolicy = backoff.Policy{Base: 10 * time.Millisecond, Multiplier: 2, Cap: 500 * time.Millisecond}

// EnsureKVBucketWithRetry creates a bucket or opens it when it already exists.
//
// Several processes may race to create the same results bucket; the loser opens
// the winner's bucket instead of failing. Transient errors are retried with jittered
// backoff until maxRetries attempts have been made.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream handle
//   - config: Bucket configuration
//   - maxRetries: Attempts before giving up, 3 when not positive
//
// Returns:
//   - jetstream.KeyValue: The bucket
//   - error: Last error after all attempts, or the context error
//
// Example:
//
//	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
//	    Bucket: "mcint-results",
//	    TTL:    24 * time.Hour,
//	}, 3)
func EnsureKVBucketWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	delays := backoff.NewSequence(retryPolicy, 0)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err = js.KeyValue(ctx, config.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delays.Next()):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		config.Bucket, maxRetries, lastErr)
}
