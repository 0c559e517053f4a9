package transfer

// Channel is the bidirectional, ordered, reliable message transport between
// exactly two endpoints. The transport layer supplies an implementation and
// delivers inbound messages to Receiver.OnMessage in arrival order.
type Channel interface {
	// Send transmits one message to the remote peer.
	Send(msg Message) error
	// IsOpen reports whether the underlying transport is established.
	IsOpen() bool
}
