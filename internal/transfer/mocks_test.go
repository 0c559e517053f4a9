package transfer

import (
	"dropwire/internal/config"
)

// fakeChannel is an in-memory Channel implementation recording every message
// handed to it.
type fakeChannel struct {
	open    bool
	sent    []Message
	sendErr error
}

func (c *fakeChannel) Send(msg Message) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) IsOpen() bool {
	return c.open
}

// testConfig returns a config with pacing and stall detection disabled so
// tests run deterministically and fast.
func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Transfer.PaceDelay = 0
	cfg.Transfer.StallTimeout = 0
	return cfg
}

// patternBytes produces a deterministic non-repeating-ish byte sequence so
// reassembly mistakes (swapped or missing chunks) change the content.
func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31 + i/251)
	}
	return data
}
