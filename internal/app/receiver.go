package app

import (
	"context"
	"errors"
	"fmt"

	"dropwire/internal/config"
	"dropwire/internal/signalling"
	"dropwire/internal/transfer"
	"dropwire/internal/transport"
	"dropwire/internal/ui"
	"dropwire/pkg/types"
	"dropwire/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ReceiverOptions configures the receiver application behavior
type ReceiverOptions struct {
	DestPath string // Required: destination directory to save the received file
}

// ReceiverApp implements receiver application logic
type ReceiverApp struct {
	cfg              *config.Config
	peerService      *transport.PeerService
	signalingService *signalling.SignalingService
	ui               *ui.ConsoleUI
}

// NewReceiverApp creates a new receiver application
func NewReceiverApp(cfg *config.Config, peerService *transport.PeerService, signalingService *signalling.SignalingService, consoleUI *ui.ConsoleUI) *ReceiverApp {
	return &ReceiverApp{
		cfg:              cfg,
		peerService:      peerService,
		signalingService: signalingService,
		ui:               consoleUI,
	}
}

// Run starts the receiver application with the given options
func (r *ReceiverApp) Run(ctx context.Context, opts *ReceiverOptions) error {
	if opts.DestPath == "" {
		return fmt.Errorf("destination path is required")
	}
	destDir, err := utils.ResolveDestinationDir(opts.DestPath)
	if err != nil {
		return err
	}

	progress := transfer.NewProgress()
	receiver := transfer.NewReceiver(r.cfg, progress)
	progress.Publish(&types.TransferStatus{Phase: types.PhaseConnecting})

	exitCh := make(chan error, 1)
	exit := func(err error) {
		select {
		case exitCh <- err:
		default:
		}
	}

	peerConn, err := r.peerService.CreatePeerConnection("receiver",
		func(err error) { exit(err) },
		func() { exit(transfer.ErrChannelClosed) },
	)
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	channel := transport.NewDataChannel(r.cfg, transport.Events{
		OnMessage: func(msg transfer.Message) {
			if err := receiver.OnMessage(msg); err != nil {
				logrus.WithError(err).Error("Transfer failed")
			}
		},
		OnError: func(err error) {
			receiver.OnChannelError(err.Error())
			exit(err)
		},
	})
	channel.Accept(peerConn)

	// The app layer resolves the transfer outcome from the status stream:
	// a Completed snapshot carries the reassembled payload to write out.
	statusCh, unsubscribe := progress.Subscribe()
	go func() {
		for status := range statusCh {
			if status == nil {
				continue
			}
			switch status.Phase {
			case types.PhaseCompleted:
				destPath, err := utils.WriteReceivedFile(destDir, status.FileName, status.Payload)
				if err == nil {
					logrus.WithField("path", destPath).Info("File saved")
				}
				exit(err)
				return
			case types.PhaseErrored:
				exit(errors.New(status.ErrorDetail))
				return
			}
		}
	}()

	uiStatusCh, uiUnsubscribe := progress.Subscribe()
	go r.ui.Watch(ctx, uiStatusCh)

	code := ""
	cleanup := func() {
		receiver.Cleanup()
		unsubscribe()
		uiUnsubscribe()
		if err := channel.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing data channel")
		}
		if err := r.peerService.Close(peerConn); err != nil {
			logrus.WithError(err).Warn("Error closing peer connection")
		}
		if code != "" {
			if err := r.signalingService.ClearSession(ctx, code); err != nil {
				logrus.WithError(err).Warn("Failed to clear signalling session")
			}
		}
	}
	defer cleanup()

	code, err = r.ui.InputCode(ctx)
	if err != nil {
		return fmt.Errorf("failed to get code from user: %w", err)
	}

	if err := r.signalingService.StartReceiverSignallingProcess(ctx, peerConn, code); err != nil {
		return fmt.Errorf("failed during signalling process: %w", err)
	}

	select {
	case err := <-exitCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
