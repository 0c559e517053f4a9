package transfer

import (
	"testing"

	"dropwire/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveBufferOutOfOrderAssembly(t *testing.T) {
	data := patternBytes(2*ChunkSize + 100)
	buf := newReceiveBuffer(types.FileMetadata{Name: "ooo.bin", Size: uint64(len(data))})
	require.Len(t, buf.slots, 3)

	// Chunks land in reverse order; assembly is still index order.
	stored, err := buf.store(2, data[2*ChunkSize:])
	require.NoError(t, err)
	assert.True(t, stored)
	assert.False(t, buf.complete())

	stored, err = buf.store(1, data[ChunkSize:2*ChunkSize])
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = buf.store(0, data[:ChunkSize])
	require.NoError(t, err)
	assert.True(t, stored)

	require.True(t, buf.complete())
	assert.Equal(t, uint64(len(data)), buf.received)
	assert.Equal(t, data, buf.assemble())
}

func TestReceiveBufferDuplicateStore(t *testing.T) {
	buf := newReceiveBuffer(types.FileMetadata{Size: 10})

	stored, err := buf.store(0, patternBytes(10))
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = buf.store(0, patternBytes(10))
	require.NoError(t, err)
	assert.False(t, stored, "duplicate must be reported as not stored")
	assert.Equal(t, uint64(10), buf.received)
	assert.Equal(t, 1, buf.filled)
}

func TestReceiveBufferSizeMismatch(t *testing.T) {
	buf := newReceiveBuffer(types.FileMetadata{Size: 100})

	stored, err := buf.store(0, patternBytes(50))
	require.NoError(t, err)
	assert.True(t, stored)
	assert.False(t, buf.complete(), "fewer bytes than declared must not complete")
}

func TestReceiveBufferIgnoresEmptyChunkData(t *testing.T) {
	buf := newReceiveBuffer(types.FileMetadata{Size: 100})

	stored, err := buf.store(0, nil)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Zero(t, buf.filled)
	assert.Zero(t, buf.received)
	assert.False(t, buf.complete())
}

func TestReceiveBufferOutOfRange(t *testing.T) {
	buf := newReceiveBuffer(types.FileMetadata{Size: 10})

	_, err := buf.store(1, patternBytes(10))
	require.ErrorIs(t, err, ErrChunkIndexOutOfRange)

	// Zero-size transfer allocates no slots, so index 0 is already invalid.
	empty := newReceiveBuffer(types.FileMetadata{Size: 0})
	_, err = empty.store(0, nil)
	require.ErrorIs(t, err, ErrChunkIndexOutOfRange)
	assert.True(t, empty.complete())
}
