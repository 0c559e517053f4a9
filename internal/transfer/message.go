package transfer

import (
	"encoding/json"
	"fmt"
)

// MessageKind identifies the type of message multiplexed over the data channel
type MessageKind string

const (
	KindMetadata MessageKind = "metadata"
	KindChunk    MessageKind = "chunk"
	KindComplete MessageKind = "complete"
)

const (
	// ChunkSize is the number of file bytes carried by one chunk message.
	ChunkSize = 16384

	// MaxChunkSize is the upper bound a chunk may ever carry. It stays well
	// below the practical message-size ceiling of an SCTP data channel;
	// ChunkSize must never exceed it.
	MaxChunkSize = 65536
)

// Message is the wire envelope for all three message kinds. Metadata fields
// are populated for KindMetadata, chunk fields for KindChunk, and a
// KindComplete message carries nothing but its kind.
type Message struct {
	Kind MessageKind `json:"kind"`

	// metadata
	FileName string `json:"fileName,omitempty"`
	FileSize uint64 `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`

	// chunk
	Index  uint32 `json:"index,omitempty"`
	Data   []byte `json:"data,omitempty"`
	IsLast bool   `json:"isLast,omitempty"`
}

// SerializeMessage converts a Message to bytes for transmission
func SerializeMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}
	return data, nil
}

// DeserializeMessage converts bytes back to a Message
func DeserializeMessage(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	if err != nil {
		return Message{}, fmt.Errorf("failed to deserialize message: %w", err)
	}
	return msg, nil
}

// ChunkCount returns the number of chunks needed to carry size bytes.
func ChunkCount(size uint64) uint32 {
	return uint32((size + ChunkSize - 1) / ChunkSize)
}
