package transfer

import (
	"fmt"

	"dropwire/pkg/types"
)

// receiveBuffer accumulates the chunks of one in-progress transfer. It is
// allocated when metadata arrives, populated chunk by chunk, and consumed by
// assemble on the completion marker. At most one is live per Receiver.
type receiveBuffer struct {
	meta     types.FileMetadata
	slots    [][]byte
	filled   int
	received uint64 // running byte sum, maintained incrementally
}

func newReceiveBuffer(meta types.FileMetadata) *receiveBuffer {
	return &receiveBuffer{
		meta:  meta,
		slots: make([][]byte, ChunkCount(meta.Size)),
	}
}

// store places chunk bytes at the given index. It reports whether the slot
// was newly filled; a duplicate index is ignored without error, tolerating
// at-least-once delivery, and so is a chunk carrying no bytes, which can
// never fill a slot. An index past the allocated range is a protocol
// violation.
func (b *receiveBuffer) store(index uint32, data []byte) (bool, error) {
	if index >= uint32(len(b.slots)) {
		return false, fmt.Errorf("%w: index %d, buffer holds %d chunks",
			ErrChunkIndexOutOfRange, index, len(b.slots))
	}
	if len(data) == 0 || b.slots[index] != nil {
		return false, nil
	}

	b.slots[index] = data
	b.filled++
	b.received += uint64(len(data))
	return true, nil
}

// complete reports whether every slot is filled and the received bytes add
// up to exactly the declared file size. Slot count alone is not enough: a
// short final chunk would reconstruct fewer bytes than the metadata promised.
func (b *receiveBuffer) complete() bool {
	return b.filled == len(b.slots) && b.received == b.meta.Size
}

// assemble concatenates the filled slots in index order into one contiguous
// buffer, skipping empty slots. The slot array is released afterwards; the
// chunks move into the result rather than being copied twice.
func (b *receiveBuffer) assemble() []byte {
	out := make([]byte, 0, b.received)
	for _, slot := range b.slots {
		if slot != nil {
			out = append(out, slot...)
		}
	}
	b.slots = nil
	return out
}
