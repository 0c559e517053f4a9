package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"dropwire/internal/config"
	"dropwire/internal/signalling"
	"dropwire/internal/transfer"
	"dropwire/internal/transport"
	"dropwire/internal/ui"
	"dropwire/pkg/types"

	"github.com/sirupsen/logrus"
)

// channelReadyTimeout bounds how long either side waits for the data channel
// to open after signalling completed.
const channelReadyTimeout = 30 * time.Second

// SenderOptions configures the sender application behavior
type SenderOptions struct {
	FilePath string // Required: path to file to send
}

// SenderApp implements sender application logic
type SenderApp struct {
	cfg              *config.Config
	peerService      *transport.PeerService
	signalingService *signalling.SignalingService
	ui               *ui.ConsoleUI
}

// NewSenderApp creates a new sender application
func NewSenderApp(cfg *config.Config, peerService *transport.PeerService, signalingService *signalling.SignalingService, consoleUI *ui.ConsoleUI) *SenderApp {
	return &SenderApp{
		cfg:              cfg,
		peerService:      peerService,
		signalingService: signalingService,
		ui:               consoleUI,
	}
}

// Run starts the sender application with the given options
func (s *SenderApp) Run(ctx context.Context, opts *SenderOptions) error {
	if opts.FilePath == "" {
		return fmt.Errorf("file path is required")
	}
	if _, err := os.Stat(opts.FilePath); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", opts.FilePath)
	}

	progress := transfer.NewProgress()
	sender := transfer.NewSender(s.cfg, progress)
	progress.Publish(&types.TransferStatus{Phase: types.PhaseConnecting})

	exitCh := make(chan error, 1)
	exit := func(err error) {
		select {
		case exitCh <- err:
		default:
		}
	}

	peerConn, err := s.peerService.CreatePeerConnection("sender",
		func(err error) { exit(err) },
		func() { exit(nil) },
	)
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	channel := transport.NewDataChannel(s.cfg, transport.Events{
		OnError: func(err error) { exit(err) },
	})
	if err := channel.Dial(peerConn, "fileTransfer"); err != nil {
		s.peerService.Close(peerConn)
		return fmt.Errorf("failed to create data channel: %w", err)
	}

	statusCh, unsubscribe := progress.Subscribe()
	go s.ui.Watch(ctx, statusCh)

	code := ""
	cleanup := func() {
		unsubscribe()
		if err := channel.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing data channel")
		}
		if err := s.peerService.Close(peerConn); err != nil {
			logrus.WithError(err).Warn("Error closing peer connection")
		}
		if code != "" {
			if err := s.signalingService.ClearSession(ctx, code); err != nil {
				logrus.WithError(err).Warn("Failed to clear signalling session")
			}
		}
		progress.Reset()
	}
	defer cleanup()

	code, err = s.signalingService.StartSenderSignallingProcess(ctx, peerConn)
	if err != nil {
		return fmt.Errorf("failed during signalling process: %w", err)
	}

	if err := channel.WaitReady(ctx, channelReadyTimeout); err != nil {
		return err
	}

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- sender.Send(ctx, channel, opts.FilePath)
	}()

	select {
	case err := <-sendDone:
		if err != nil {
			return err
		}
		// Give the transport a moment to flush the completion marker
		// before the graceful close tears the channel down.
		time.Sleep(200 * time.Millisecond)
		s.ui.ShowMessage("File transfer completed successfully!")
		return nil
	case err := <-exitCh:
		if err != nil {
			return err
		}
		return transfer.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
