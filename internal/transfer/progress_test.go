package transfer

import (
	"testing"
	"time"

	"dropwire/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvStatus(t *testing.T, ch <-chan *types.TransferStatus) *types.TransferStatus {
	t.Helper()
	select {
	case status := <-ch:
		return status
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status")
		return nil
	}
}

func TestProgressInitialValueIsNil(t *testing.T) {
	progress := NewProgress()

	ch, cancel := progress.Subscribe()
	defer cancel()

	assert.Nil(t, recvStatus(t, ch))
	assert.Nil(t, progress.Latest())
}

func TestProgressLateSubscriberGetsLatest(t *testing.T) {
	progress := NewProgress()

	status := &types.TransferStatus{FileName: "a.bin", Phase: types.PhaseTransferring}
	progress.Publish(status)

	ch, cancel := progress.Subscribe()
	defer cancel()

	assert.Same(t, status, recvStatus(t, ch))
}

func TestProgressConflatesUnreadStatuses(t *testing.T) {
	progress := NewProgress()

	ch, cancel := progress.Subscribe()
	defer cancel()

	// Consume the initial value, then let two publishes pile up.
	recvStatus(t, ch)
	progress.Publish(&types.TransferStatus{BytesTransferred: 1})
	newest := &types.TransferStatus{BytesTransferred: 2}
	progress.Publish(newest)

	assert.Same(t, newest, recvStatus(t, ch), "slow consumer sees only the newest snapshot")
}

func TestProgressFansOutToAllSubscribers(t *testing.T) {
	progress := NewProgress()

	ch1, cancel1 := progress.Subscribe()
	defer cancel1()
	ch2, cancel2 := progress.Subscribe()
	defer cancel2()

	recvStatus(t, ch1)
	recvStatus(t, ch2)

	status := &types.TransferStatus{FileName: "fan.bin"}
	progress.Publish(status)

	assert.Same(t, status, recvStatus(t, ch1))
	assert.Same(t, status, recvStatus(t, ch2))
}

func TestProgressReset(t *testing.T) {
	progress := NewProgress()
	progress.Publish(&types.TransferStatus{FileName: "gone.bin"})

	ch, cancel := progress.Subscribe()
	defer cancel()
	recvStatus(t, ch)

	progress.Reset()

	assert.Nil(t, recvStatus(t, ch))
	assert.Nil(t, progress.Latest())
}

func TestProgressUnsubscribe(t *testing.T) {
	progress := NewProgress()

	ch, cancel := progress.Subscribe()
	recvStatus(t, ch)

	cancel()
	cancel() // second call is a no-op

	_, ok := <-ch
	require.False(t, ok, "cancel closes the subscription channel")

	// Publishing after unsubscribe must not panic or block.
	progress.Publish(&types.TransferStatus{FileName: "late.bin"})
}
