package transport

import (
	"context"
	"testing"
	"time"

	"dropwire/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkOpenIsIdempotent(t *testing.T) {
	ch := NewDataChannel(config.NewDefaultConfig(), Events{})

	ch.markOpen()
	assert.NotPanics(t, func() { ch.markOpen() }, "a second open announcement must not double-close the readiness channel")

	require.NoError(t, ch.WaitReady(context.Background(), time.Second))
	assert.True(t, ch.IsOpen())
}

func TestWaitReadyTimeout(t *testing.T) {
	ch := NewDataChannel(config.NewDefaultConfig(), Events{})

	err := ch.WaitReady(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	ch := NewDataChannel(config.NewDefaultConfig(), Events{})

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.False(t, ch.IsOpen())
}
