package types

import "github.com/google/uuid"

// Phase is the lifecycle stage of a transfer.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseTransferring
	PhaseCompleted
	PhaseErrored
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "Connecting"
	case PhaseTransferring:
		return "Transferring"
	case PhaseCompleted:
		return "Completed"
	case PhaseErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// FileMetadata contains information about the file being transferred
type FileMetadata struct {
	Name     string `json:"name"`     // Original filename
	Size     uint64 `json:"size"`     // File size in bytes
	MimeType string `json:"mimeType"` // MIME type of the file
}

// TransferStatus is an immutable snapshot of one transfer's progress.
// Payload is only set on the receiving side once the phase is PhaseCompleted.
type TransferStatus struct {
	ID               uuid.UUID
	FileName         string
	BytesTransferred uint64
	TotalBytes       uint64
	Percentage       uint8
	Phase            Phase
	ErrorDetail      string
	Payload          []byte
}
