package transfer

import "errors"

var (
	// ErrChannelNotReady indicates a send was attempted before the data
	// channel reported itself open. The send is not retried.
	ErrChannelNotReady = errors.New("data channel is not open")

	// ErrChunkIndexOutOfRange indicates a chunk arrived with an index past
	// the range the metadata allocated. This is a protocol violation and
	// fatal to the transfer.
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrIncompleteTransfer indicates the completion marker arrived while
	// chunk slots were still empty.
	ErrIncompleteTransfer = errors.New("incomplete transfer")

	// ErrTransferStalled indicates no message arrived within the configured
	// stall timeout.
	ErrTransferStalled = errors.New("transfer stalled: no data received within timeout period")

	// ErrChannelClosed indicates the underlying transport failed or closed
	// mid-transfer.
	ErrChannelClosed = errors.New("data channel closed")
)
