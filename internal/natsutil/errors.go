// Package natsutil classifies NATS errors for the transport layer.
package natsutil

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/mcint/types"
)

// IsConnectivityError reports whether err comes from a broker connectivity problem.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, types.ErrConnectivity) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// IsRetryable reports whether a request error is worth retrying: the peer is not
// listening yet or the broker is briefly unreachable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrNoResponders) || types.IsNoResponders(err) || IsConnectivityError(err)
}
