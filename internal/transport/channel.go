package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dropwire/internal/config"
	"dropwire/internal/transfer"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// flowControlTimeout bounds how long a send waits for the remote to drain
// the data channel buffer before the channel is assumed dead.
const flowControlTimeout = 30 * time.Second

// Events carries the lifecycle and message callbacks a channel owner wires
// in before the data channel opens.
type Events struct {
	OnMessage func(transfer.Message)
	OnOpen    func()
	OnClose   func()
	OnError   func(err error)
}

// DataChannel adapts a pion data channel to the transfer.Channel abstraction:
// structured message send with flow control, an explicit readiness event
// instead of readiness polling, and lifecycle callback wiring.
type DataChannel struct {
	cfg    *config.Config
	events Events

	mu       sync.RWMutex
	dc       *webrtc.DataChannel
	isOpen   bool
	isClosed bool

	readyCh    chan struct{}
	sendMoreCh chan struct{}

	readyOnce    sync.Once
	shutdownOnce sync.Once
}

// NewDataChannel creates an unattached channel adapter. Attach it with Dial
// (offering side) or Accept (answering side).
func NewDataChannel(cfg *config.Config, events Events) *DataChannel {
	return &DataChannel{
		cfg:        cfg,
		events:     events,
		readyCh:    make(chan struct{}),
		sendMoreCh: make(chan struct{}, 1),
	}
}

// Dial creates an ordered, reliable data channel on the peer connection.
// The transfer protocol depends on this ordering guarantee; it must be
// revisited before this is ever flipped to unordered.
func (c *DataChannel) Dial(peerConn *webrtc.PeerConnection, label string) error {
	ordered := true
	options := &webrtc.DataChannelInit{
		Ordered: &ordered,
	}

	dc, err := peerConn.CreateDataChannel(label, options)
	if err != nil {
		return fmt.Errorf("failed to create data channel: %w", err)
	}

	c.attach(dc)
	return nil
}

// Accept wires the adapter to the first data channel announced by the remote
// peer.
func (c *DataChannel) Accept(peerConn *webrtc.PeerConnection) {
	peerConn.OnDataChannel(func(dc *webrtc.DataChannel) {
		logrus.WithFields(logrus.Fields{
			"label": dc.Label(),
			"id":    dc.ID(),
		}).Info("Received data channel")
		c.attach(dc)
	})
}

func (c *DataChannel) attach(dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	dc.OnOpen(func() {
		logrus.WithFields(logrus.Fields{
			"label": dc.Label(),
			"id":    dc.ID(),
		}).Info("Data channel opened")

		c.markOpen()

		if c.events.OnOpen != nil {
			c.events.OnOpen()
		}
	})

	dc.OnClose(func() {
		logrus.Info("Data channel closed")

		c.mu.Lock()
		c.isOpen = false
		c.mu.Unlock()

		if c.events.OnClose != nil {
			c.events.OnClose()
		}
	})

	dc.OnError(func(err error) {
		logrus.WithError(err).Error("Data channel error")

		c.mu.Lock()
		c.isOpen = false
		c.mu.Unlock()

		if c.events.OnError != nil {
			c.events.OnError(err)
		}
	})

	dc.OnMessage(func(raw webrtc.DataChannelMessage) {
		msg, err := transfer.DeserializeMessage(raw.Data)
		if err != nil {
			logrus.WithError(err).Error("Dropping malformed message")
			if c.events.OnError != nil {
				c.events.OnError(err)
			}
			return
		}
		if c.events.OnMessage != nil {
			c.events.OnMessage(msg)
		}
	})

	// Flow control: the sender blocks in Send once the buffered amount
	// passes the high-water mark and resumes on this signal.
	dc.SetBufferedAmountLowThreshold(c.cfg.WebRTC.BufferedAmountLowThreshold)
	dc.OnBufferedAmountLow(func() {
		select {
		case c.sendMoreCh <- struct{}{}:
		default:
		}
	})
}

// markOpen flips the channel to open and fires the readiness event. The
// remote may announce more than one data channel, so a second open must not
// close readyCh again.
func (c *DataChannel) markOpen() {
	c.mu.Lock()
	c.isOpen = true
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.readyCh) })
}

// WaitReady blocks until the data channel opens, the context is cancelled,
// or the timeout elapses. This is the readiness event the rest of the system
// observes; nothing polls IsOpen in a loop.
func (c *DataChannel) WaitReady(ctx context.Context, timeout time.Duration) error {
	select {
	case <-c.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for channel ready: %w", ctx.Err())
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for channel ready")
	}
}

// IsOpen reports whether the data channel is currently established.
func (c *DataChannel) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isOpen && !c.isClosed
}

// Send serializes and transmits one message, honoring flow control.
func (c *DataChannel) Send(msg transfer.Message) error {
	c.mu.RLock()
	dc := c.dc
	open := c.isOpen && !c.isClosed
	c.mu.RUnlock()

	if !open || dc == nil {
		return transfer.ErrChannelNotReady
	}

	data, err := transfer.SerializeMessage(msg)
	if err != nil {
		return err
	}

	if dc.BufferedAmount() > c.cfg.WebRTC.MaxBufferedAmount {
		select {
		case <-c.sendMoreCh:
		case <-time.After(flowControlTimeout):
			return fmt.Errorf("flow control timeout, data channel may be dead")
		}
	}

	if err := dc.Send(data); err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	return nil
}

// Close gracefully closes the data channel. Safe to call more than once.
func (c *DataChannel) Close() error {
	c.mu.Lock()
	if c.isClosed {
		c.mu.Unlock()
		return nil
	}
	c.isClosed = true
	c.isOpen = false
	dc := c.dc
	c.mu.Unlock()

	c.shutdownOnce.Do(func() {
		if dc != nil && dc.ReadyState() == webrtc.DataChannelStateOpen {
			if err := dc.GracefulClose(); err != nil {
				logrus.WithError(err).Warn("Error during graceful close")
			}
		}
	})
	return nil
}
