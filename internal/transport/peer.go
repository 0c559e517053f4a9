package transport

import (
	"fmt"

	"dropwire/internal/config"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// ConnectionFailureError represents a peer connection failure
type ConnectionFailureError struct {
	State webrtc.PeerConnectionState
	Role  string
}

func (e *ConnectionFailureError) Error() string {
	return fmt.Sprintf("peer connection entered %s state (%s)", e.State.String(), e.Role)
}

// PeerService manages WebRTC peer connection lifecycle
type PeerService struct {
	cfg *config.Config
}

// NewPeerService creates a new peer service with the given configuration
func NewPeerService(cfg *config.Config) *PeerService {
	return &PeerService{cfg: cfg}
}

// CreatePeerConnection creates a peer connection and wires its state changes:
// onFailure fires when the connection fails, onClosed when it closes.
func (p *PeerService) CreatePeerConnection(role string, onFailure func(error), onClosed func()) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: p.cfg.WebRTC.ICEServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logrus.WithFields(logrus.Fields{
			"state": state.String(),
			"role":  role,
		}).Info("Peer connection state changed")

		switch state {
		case webrtc.PeerConnectionStateFailed:
			if onFailure != nil {
				onFailure(&ConnectionFailureError{State: state, Role: role})
			}
		case webrtc.PeerConnectionStateClosed:
			if onClosed != nil {
				onClosed()
			}
		}
	})

	return pc, nil
}

// Close gracefully closes the peer connection
func (p *PeerService) Close(pc *webrtc.PeerConnection) error {
	if pc == nil {
		return nil
	}
	return pc.Close()
}
