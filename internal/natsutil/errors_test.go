package natsutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/mcint/types"
)

func TestIsConnectivityError(t *testing.T) {
	require.False(t, IsConnectivityError(nil))
	require.False(t, IsConnectivityError(errors.New("bad payload")))
	require.True(t, IsConnectivityError(nats.ErrTimeout))
	require.True(t, IsConnectivityError(fmt.Errorf("join: %w", nats.ErrConnectionClosed)))
	require.True(t, IsConnectivityError(types.ErrConnectivity))
	require.True(t, IsConnectivityError(errors.New("dial tcp: connection refused")))
}

func TestIsRetryable(t *testing.T) {
	require.False(t, IsRetryable(nil))
	require.True(t, IsRetryable(nats.ErrNoResponders))
	require.True(t, IsRetryable(errors.New("nats: no responders available for request")))
	require.True(t, IsRetryable(nats.ErrTimeout))
	require.False(t, IsRetryable(types.ErrPartition))
}
