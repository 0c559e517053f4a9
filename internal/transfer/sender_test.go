package transfer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dropwire/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestSenderChannelNotReady(t *testing.T) {
	progress := NewProgress()
	sender := NewSender(testConfig(), progress)
	ch := &fakeChannel{open: false}

	path := writeTempFile(t, "data.bin", patternBytes(10))

	err := sender.Send(context.Background(), ch, path)
	require.ErrorIs(t, err, ErrChannelNotReady)
	assert.Empty(t, ch.sent, "no partial send should be attempted")
}

func TestSenderMessageSequence(t *testing.T) {
	progress := NewProgress()
	sender := NewSender(testConfig(), progress)
	ch := &fakeChannel{open: true}

	data := patternBytes(2 * ChunkSize) // exact multiple: exactly 2 chunks
	path := writeTempFile(t, "double.bin", data)

	require.NoError(t, sender.Send(context.Background(), ch, path))
	require.Len(t, ch.sent, 4)

	meta := ch.sent[0]
	assert.Equal(t, KindMetadata, meta.Kind)
	assert.Equal(t, "double.bin", meta.FileName)
	assert.Equal(t, uint64(len(data)), meta.FileSize)
	assert.Equal(t, "application/octet-stream", meta.FileType)

	first := ch.sent[1]
	assert.Equal(t, KindChunk, first.Kind)
	assert.Equal(t, uint32(0), first.Index)
	assert.False(t, first.IsLast)
	assert.Len(t, first.Data, ChunkSize)

	second := ch.sent[2]
	assert.Equal(t, uint32(1), second.Index)
	assert.True(t, second.IsLast)
	assert.Len(t, second.Data, ChunkSize)

	assert.Equal(t, KindComplete, ch.sent[3].Kind)
}

func TestSenderEmptyFile(t *testing.T) {
	progress := NewProgress()
	sender := NewSender(testConfig(), progress)
	ch := &fakeChannel{open: true}

	path := writeTempFile(t, "empty.bin", nil)

	require.NoError(t, sender.Send(context.Background(), ch, path))

	// Metadata and the completion marker, no chunks in between.
	require.Len(t, ch.sent, 2)
	assert.Equal(t, KindMetadata, ch.sent[0].Kind)
	assert.Equal(t, uint64(0), ch.sent[0].FileSize)
	assert.Equal(t, KindComplete, ch.sent[1].Kind)

	latest := progress.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, types.PhaseCompleted, latest.Phase)
	assert.Equal(t, uint8(100), latest.Percentage)
}

func TestSenderChunkSizesNeverExceedLimit(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"one byte", 1},
		{"one below chunk size", ChunkSize - 1},
		{"exactly chunk size", ChunkSize},
		{"one above chunk size", ChunkSize + 1},
		{"many chunks with remainder", 10*ChunkSize + 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := NewProgress()
			sender := NewSender(testConfig(), progress)
			ch := &fakeChannel{open: true}

			path := writeTempFile(t, "sized.bin", patternBytes(tt.size))
			require.NoError(t, sender.Send(context.Background(), ch, path))

			var total int
			for _, msg := range ch.sent {
				if msg.Kind != KindChunk {
					continue
				}
				assert.LessOrEqual(t, len(msg.Data), ChunkSize)
				assert.Positive(t, len(msg.Data))
				total += len(msg.Data)
			}
			assert.Equal(t, tt.size, total)
		})
	}
}

func TestSenderProgressMonotonic(t *testing.T) {
	progress := NewProgress()
	sender := NewSender(testConfig(), progress)
	ch := &fakeChannel{open: true}

	size := 5*ChunkSize + 123
	path := writeTempFile(t, "progress.bin", patternBytes(size))

	statusCh, cancel := progress.Subscribe()
	defer cancel()

	var mu sync.Mutex
	var seen []*types.TransferStatus
	done := make(chan struct{})
	go func() {
		defer close(done)
		for status := range statusCh {
			if status == nil {
				continue
			}
			mu.Lock()
			seen = append(seen, status)
			mu.Unlock()
			if status.Phase == types.PhaseCompleted {
				return
			}
		}
	}()

	require.NoError(t, sender.Send(context.Background(), ch, path))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completed status")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)

	var prev uint64
	for _, status := range seen {
		assert.GreaterOrEqual(t, status.BytesTransferred, prev)
		assert.LessOrEqual(t, status.BytesTransferred, status.TotalBytes)
		if status.TotalBytes > 0 {
			want := uint8((status.BytesTransferred*100 + status.TotalBytes/2) / status.TotalBytes)
			assert.Equal(t, want, status.Percentage)
		}
		prev = status.BytesTransferred
	}

	last := seen[len(seen)-1]
	assert.Equal(t, types.PhaseCompleted, last.Phase)
	assert.Equal(t, uint64(size), last.BytesTransferred)
}

func TestSenderCancelledBetweenChunks(t *testing.T) {
	cfg := testConfig()
	cfg.Transfer.PaceDelay = 50 * time.Millisecond

	progress := NewProgress()
	sender := NewSender(cfg, progress)
	ch := &fakeChannel{open: true}

	path := writeTempFile(t, "cancel.bin", patternBytes(3*ChunkSize))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, ch, path)
	require.ErrorIs(t, err, context.Canceled)

	// The loop stops at the first pacing point: metadata plus one chunk
	// went out, the completion marker never did.
	require.Len(t, ch.sent, 2)
	assert.Equal(t, KindMetadata, ch.sent[0].Kind)
	assert.Equal(t, KindChunk, ch.sent[1].Kind)
}

func TestSenderNoPacingAfterFinalChunk(t *testing.T) {
	cfg := testConfig()
	cfg.Transfer.PaceDelay = time.Hour

	progress := NewProgress()
	sender := NewSender(cfg, progress)
	ch := &fakeChannel{open: true}

	path := writeTempFile(t, "single.bin", patternBytes(100))

	// A single-chunk file has no pacing point: even a cancelled context
	// cannot interrupt the send, which proves the hour-long delay is never
	// awaited between the last chunk and the completion marker.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, sender.Send(ctx, ch, path))
	require.Len(t, ch.sent, 3)
	assert.Equal(t, KindComplete, ch.sent[2].Kind)
}

func TestSenderPublishesErroredOnSendFailure(t *testing.T) {
	progress := NewProgress()
	sender := NewSender(testConfig(), progress)
	ch := &fakeChannel{open: true, sendErr: ErrChannelClosed}

	path := writeTempFile(t, "fail.bin", patternBytes(10))

	err := sender.Send(context.Background(), ch, path)
	require.Error(t, err)

	latest := progress.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, types.PhaseErrored, latest.Phase)
	assert.NotEmpty(t, latest.ErrorDetail)
}
