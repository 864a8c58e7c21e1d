package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/keepsakehq/keepsake/pkg/eventstream"
)

// SpyPublisher records every published memory event.
type SpyPublisher struct {
	mu     sync.Mutex
	events []eventstream.MemoryEvent

	// Fail causes PublishMemory to return an error.
	Fail bool

	Closed bool
}

// NewSpyPublisher creates a new spy publisher.
func NewSpyPublisher() *SpyPublisher {
	return &SpyPublisher{}
}

func (p *SpyPublisher) PublishMemory(_ context.Context, event *eventstream.MemoryEvent) error {
	if event == nil {
		return eventstream.ErrNilMemoryEvent
	}
	if p.Fail {
		return errors.New("publish failed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *SpyPublisher) Close() error {
	p.Closed = true
	return nil
}

// Events returns a copy of everything published so far.
func (p *SpyPublisher) Events() []eventstream.MemoryEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]eventstream.MemoryEvent, len(p.events))
	copy(out, p.events)
	return out
}
