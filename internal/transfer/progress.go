package transfer

import (
	"sync"

	"dropwire/pkg/types"
)

// Progress is a last-value-cached broadcast of transfer status snapshots.
// Both roles publish to it; consumers (UI, app layer) observe it. A nil
// status is the initial value and the reset value published on cleanup.
//
// Each subscriber owns a single-slot channel: a new status overwrites an
// unconsumed older one, so a slow consumer always sees the latest snapshot
// and a publish never blocks a state transition.
type Progress struct {
	mu     sync.Mutex
	last   *types.TransferStatus
	subs   map[int]chan *types.TransferStatus
	nextID int
}

// NewProgress creates an empty progress broadcaster.
func NewProgress() *Progress {
	return &Progress{
		subs: make(map[int]chan *types.TransferStatus),
	}
}

// Subscribe registers a new observer. The returned channel immediately
// yields the most recently published status (nil before the first publish),
// then every subsequent one in publish order. The cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (p *Progress) Subscribe() (<-chan *types.TransferStatus, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++

	ch := make(chan *types.TransferStatus, 1)
	ch <- p.last
	p.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

// Publish replaces the cached status and fans it out to all subscribers.
func (p *Progress) Publish(status *types.TransferStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = status
	for _, ch := range p.subs {
		// Drop the stale slot value, if any, then store the newest.
		select {
		case <-ch:
		default:
		}
		ch <- status
	}
}

// Reset publishes the nil reset value.
func (p *Progress) Reset() {
	p.Publish(nil)
}

// Latest returns the most recently published status without subscribing.
func (p *Progress) Latest() *types.TransferStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
