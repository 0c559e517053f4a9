package transfer

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"dropwire/internal/config"
	"dropwire/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Sender owns the outgoing side of one transfer: it chunks the file, paces
// the chunk stream, and publishes progress snapshots.
type Sender struct {
	cfg      *config.Config
	progress *Progress
}

// NewSender creates a sender publishing to the given progress broadcaster.
func NewSender(cfg *config.Config, progress *Progress) *Sender {
	return &Sender{
		cfg:      cfg,
		progress: progress,
	}
}

// Send transmits the file at filePath over the channel: one metadata message,
// then every chunk in increasing index order, then the completion marker.
// The caller guarantees exactly one Send in flight per channel.
//
// The whole file is buffered in memory before the first message goes out.
// That caps the practical file size at available memory; it is a deliberate
// simplicity trade-off, not an oversight.
//
// Send fails fast with ErrChannelNotReady when the channel is not open; no
// partial send is attempted. Mid-transfer failures are published as Errored
// statuses in addition to being returned.
func (s *Sender) Send(ctx context.Context, ch Channel, filePath string) error {
	if !ch.IsOpen() {
		return ErrChannelNotReady
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	meta := types.FileMetadata{
		Name:     filepath.Base(filePath),
		Size:     uint64(len(data)),
		MimeType: detectMimeType(filePath),
	}

	id := uuid.New()
	log := logrus.WithFields(logrus.Fields{
		"transfer_id": id,
		"file_name":   meta.Name,
		"file_size":   meta.Size,
	})
	log.Info("Starting file transfer")

	err = ch.Send(Message{
		Kind:     KindMetadata,
		FileName: meta.Name,
		FileSize: meta.Size,
		FileType: meta.MimeType,
	})
	if err != nil {
		return s.fail(id, meta, 0, fmt.Errorf("failed to send metadata: %w", err))
	}

	chunkCount := ChunkCount(meta.Size)
	for i := uint32(0); i < chunkCount; i++ {
		start := uint64(i) * ChunkSize
		end := min(start+ChunkSize, meta.Size)

		err = ch.Send(Message{
			Kind:   KindChunk,
			Index:  i,
			Data:   data[start:end],
			IsLast: i == chunkCount-1,
		})
		if err != nil {
			return s.fail(id, meta, start, fmt.Errorf("failed to send chunk %d: %w", i, err))
		}

		s.progress.Publish(&types.TransferStatus{
			ID:               id,
			FileName:         meta.Name,
			BytesTransferred: end,
			TotalBytes:       meta.Size,
			Percentage:       percentage(end, meta.Size),
			Phase:            types.PhaseTransferring,
		})

		// Pacing between emissions keeps the send rate bounded so the
		// transport's internal buffer is never saturated. The transport
		// layer adds true buffered-amount flow control on top. The final
		// chunk needs no pacing; the completion marker follows at once.
		if i < chunkCount-1 {
			select {
			case <-ctx.Done():
				log.Warn("Transfer cancelled")
				return ctx.Err()
			case <-time.After(s.cfg.Transfer.PaceDelay):
			}
		}
	}

	if err := ch.Send(Message{Kind: KindComplete}); err != nil {
		return s.fail(id, meta, meta.Size, fmt.Errorf("failed to send completion marker: %w", err))
	}

	s.progress.Publish(&types.TransferStatus{
		ID:               id,
		FileName:         meta.Name,
		BytesTransferred: meta.Size,
		TotalBytes:       meta.Size,
		Percentage:       100,
		Phase:            types.PhaseCompleted,
	})

	log.WithField("chunks", chunkCount).Info("File transfer complete")
	return nil
}

// fail publishes an Errored status and returns the error.
func (s *Sender) fail(id uuid.UUID, meta types.FileMetadata, sent uint64, err error) error {
	logrus.WithFields(logrus.Fields{
		"transfer_id": id,
		"file_name":   meta.Name,
	}).WithError(err).Error("File transfer failed")

	s.progress.Publish(&types.TransferStatus{
		ID:               id,
		FileName:         meta.Name,
		BytesTransferred: sent,
		TotalBytes:       meta.Size,
		Percentage:       percentage(sent, meta.Size),
		Phase:            types.PhaseErrored,
		ErrorDetail:      err.Error(),
	})
	return err
}

// percentage computes round(100 * transferred / total); 0 when total is 0.
func percentage(transferred, total uint64) uint8 {
	if total == 0 {
		return 0
	}
	return uint8((transferred*100 + total/2) / total)
}

// detectMimeType resolves a MIME type from the file extension, defaulting to
// application/octet-stream for unknown types.
func detectMimeType(filePath string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return mimeType
}
