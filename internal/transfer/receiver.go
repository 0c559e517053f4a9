package transfer

import (
	"fmt"
	"sync"
	"time"

	"dropwire/internal/config"
	"dropwire/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Receiver owns the incoming side of transfers on one channel. It is a state
// machine keyed by whether a receive buffer is live: Idle until metadata
// arrives, Receiving until the completion marker resolves the transfer.
//
// OnMessage is a pure state transition with no I/O beyond publishing status
// snapshots; transitions run to completion under one mutex, so a message is
// always fully processed before the next one starts.
type Receiver struct {
	cfg      *config.Config
	progress *Progress

	mu    sync.Mutex
	id    uuid.UUID
	buf   *receiveBuffer // nil while Idle
	stall *time.Timer
}

// NewReceiver creates a receiver publishing to the given progress broadcaster.
func NewReceiver(cfg *config.Config, progress *Progress) *Receiver {
	return &Receiver{
		cfg:      cfg,
		progress: progress,
	}
}

// OnMessage processes one inbound message from the channel. Failures are
// published as Errored statuses and also returned so the transport layer can
// log them; they are never thrown past the core boundary as panics.
func (r *Receiver) OnMessage(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf == nil {
		// Idle: anything but metadata is protocol noise, for example a
		// duplicate or late message from a previous transfer.
		if msg.Kind != KindMetadata {
			logrus.WithField("kind", msg.Kind).Debug("Ignoring message while idle")
			return nil
		}
		r.beginTransfer(msg)
		return nil
	}

	switch msg.Kind {
	case KindMetadata:
		logrus.WithFields(logrus.Fields{
			"transfer_id": r.id,
			"file_name":   r.buf.meta.Name,
		}).Warn("New metadata while a transfer is in progress, discarding incomplete buffer")
		r.discardLocked()
		r.beginTransfer(msg)
		return nil
	case KindChunk:
		return r.handleChunk(msg)
	case KindComplete:
		return r.handleComplete()
	default:
		logrus.WithField("kind", msg.Kind).Debug("Ignoring unknown message kind")
		return nil
	}
}

// OnChannelError surfaces a transport failure as an Errored status. Whatever
// transfer was in flight is abandoned; the peer must establish a fresh
// channel and restart from metadata.
func (r *Receiver) OnChannelError(detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf == nil {
		return
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": r.id,
		"detail":      detail,
	}).Error("Channel failed mid-transfer")

	r.publishErrorLocked(detail)
	r.discardLocked()
}

// Cleanup discards any in-progress transfer and publishes the reset value.
// Messages that arrive afterwards for the torn-down transfer are ignored.
func (r *Receiver) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.discardLocked()
	r.progress.Reset()
}

func (r *Receiver) beginTransfer(msg Message) {
	meta := types.FileMetadata{
		Name:     msg.FileName,
		Size:     msg.FileSize,
		MimeType: msg.FileType,
	}

	r.id = uuid.New()
	r.buf = newReceiveBuffer(meta)
	r.armStallTimer(r.buf)

	logrus.WithFields(logrus.Fields{
		"transfer_id": r.id,
		"file_name":   meta.Name,
		"file_size":   meta.Size,
		"mime_type":   meta.MimeType,
		"chunks":      len(r.buf.slots),
	}).Info("Receiving file")

	r.progress.Publish(&types.TransferStatus{
		ID:         r.id,
		FileName:   meta.Name,
		TotalBytes: meta.Size,
		Phase:      types.PhaseTransferring,
	})
}

func (r *Receiver) handleChunk(msg Message) error {
	stored, err := r.buf.store(msg.Index, msg.Data)
	if err != nil {
		r.publishErrorLocked(err.Error())
		r.discardLocked()
		return err
	}
	if !stored {
		// Duplicate index: already counted, nothing changes.
		logrus.WithFields(logrus.Fields{
			"transfer_id": r.id,
			"index":       msg.Index,
		}).Debug("Ignoring duplicate chunk")
		return nil
	}

	r.armStallTimer(r.buf)

	meta := r.buf.meta
	r.progress.Publish(&types.TransferStatus{
		ID:               r.id,
		FileName:         meta.Name,
		BytesTransferred: r.buf.received,
		TotalBytes:       meta.Size,
		Percentage:       percentage(r.buf.received, meta.Size),
		Phase:            types.PhaseTransferring,
	})
	return nil
}

func (r *Receiver) handleComplete() error {
	meta := r.buf.meta

	if !r.buf.complete() {
		err := fmt.Errorf("%w: expected %d bytes, reconstructed %d bytes",
			ErrIncompleteTransfer, meta.Size, r.buf.received)
		r.publishErrorLocked(err.Error())
		r.discardLocked()
		return err
	}

	payload := r.buf.assemble()
	r.discardLocked()

	logrus.WithFields(logrus.Fields{
		"transfer_id": r.id,
		"file_name":   meta.Name,
		"bytes":       len(payload),
	}).Info("File reassembled")

	r.progress.Publish(&types.TransferStatus{
		ID:               r.id,
		FileName:         meta.Name,
		BytesTransferred: meta.Size,
		TotalBytes:       meta.Size,
		Percentage:       100,
		Phase:            types.PhaseCompleted,
		Payload:          payload,
	})
	return nil
}

// publishErrorLocked publishes an Errored snapshot for the live transfer.
func (r *Receiver) publishErrorLocked(detail string) {
	var meta types.FileMetadata
	var received uint64
	if r.buf != nil {
		meta = r.buf.meta
		received = r.buf.received
	}

	r.progress.Publish(&types.TransferStatus{
		ID:               r.id,
		FileName:         meta.Name,
		BytesTransferred: received,
		TotalBytes:       meta.Size,
		Percentage:       percentage(received, meta.Size),
		Phase:            types.PhaseErrored,
		ErrorDetail:      detail,
	})
}

// discardLocked drops the live buffer and returns the receiver to Idle.
func (r *Receiver) discardLocked() {
	r.buf = nil
	if r.stall != nil {
		r.stall.Stop()
		r.stall = nil
	}
}

// armStallTimer (re)starts the stall timer for the given buffer. A transfer
// that sees no chunk for the configured timeout is failed and reset. A zero
// timeout disables detection.
func (r *Receiver) armStallTimer(buf *receiveBuffer) {
	timeout := r.cfg.Transfer.StallTimeout
	if timeout <= 0 {
		return
	}
	if r.stall != nil {
		r.stall.Stop()
	}
	r.stall = time.AfterFunc(timeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		// The transfer the timer was armed for may already be gone.
		if r.buf != buf {
			return
		}

		logrus.WithFields(logrus.Fields{
			"transfer_id": r.id,
			"file_name":   buf.meta.Name,
			"timeout":     timeout,
		}).Error("Transfer stalled")

		r.publishErrorLocked(ErrTransferStalled.Error())
		r.discardLocked()
	})
}
