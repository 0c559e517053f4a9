package config

import (
	"errors"
	"time"

	"github.com/pion/webrtc/v4"
)

var (
	ErrInvalidBufferConfig        = errors.New("buffered amount low threshold must be less than max buffered amount")
	ErrInvalidPaceDelay           = errors.New("pace delay must not be negative")
	ErrInvalidStallTimeout        = errors.New("stall timeout must not be negative")
	ErrInvalidFirebaseConfig      = errors.New("Firebase credentials path must be set")
	ErrInvalidFirebaseProjectID   = errors.New("Firebase project ID must be set")
	ErrInvalidFirebaseDatabaseURL = errors.New("Firebase database URL must be set")
)

// Config holds all application configuration
type Config struct {
	WebRTC   WebRTCConfig   `json:"webrtc"`
	Transfer TransferConfig `json:"transfer"`
	Firebase FirebaseConfig `json:"firebase"`
}

// WebRTCConfig holds WebRTC-specific configuration
type WebRTCConfig struct {
	ICEServers                 []webrtc.ICEServer `json:"ice_servers"`
	BufferedAmountLowThreshold uint64             `json:"buffered_amount_low_threshold"`
	MaxBufferedAmount          uint64             `json:"max_buffered_amount"`
}

// TransferConfig holds transfer protocol tuning knobs
type TransferConfig struct {
	// PaceDelay is the fixed delay inserted between chunk emissions so the
	// send rate stays bounded. Zero disables pacing.
	PaceDelay time.Duration `json:"pace_delay"`
	// StallTimeout fails a receiving transfer that sees no message for this
	// long. Zero disables stall detection.
	StallTimeout time.Duration `json:"stall_timeout"`
}

// FirebaseConfig holds Firebase client configuration
type FirebaseConfig struct {
	ProjectID       string `json:"project_id"`
	DatabaseURL     string `json:"database_url"`
	CredentialsPath string `json:"credentials_path"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		WebRTC: WebRTCConfig{
			ICEServers: []webrtc.ICEServer{
				{
					URLs: []string{"stun:stun.l.google.com:19302"},
				},
			},
			BufferedAmountLowThreshold: 512 * 1024,  // 512 KB
			MaxBufferedAmount:          1024 * 1024, // 1 MB
		},
		Transfer: TransferConfig{
			PaceDelay:    10 * time.Millisecond,
			StallTimeout: 30 * time.Second,
		},
		Firebase: FirebaseConfig{
			ProjectID:       "",
			DatabaseURL:     "",
			CredentialsPath: "",
		},
	}
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.WebRTC.BufferedAmountLowThreshold >= c.WebRTC.MaxBufferedAmount {
		return ErrInvalidBufferConfig
	}
	if c.Transfer.PaceDelay < 0 {
		return ErrInvalidPaceDelay
	}
	if c.Transfer.StallTimeout < 0 {
		return ErrInvalidStallTimeout
	}
	if c.Firebase.CredentialsPath == "" {
		return ErrInvalidFirebaseConfig
	}
	if c.Firebase.ProjectID == "" {
		return ErrInvalidFirebaseProjectID
	}
	if c.Firebase.DatabaseURL == "" {
		return ErrInvalidFirebaseDatabaseURL
	}
	return nil
}
