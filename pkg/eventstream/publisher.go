// Package eventstream publishes memory state-change events to an event
// stream backend. Publishing is best-effort from the coordinator's point
// of view: a failed publish is logged, never surfaced to the caller.
package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishMemory(ctx context.Context, event *MemoryEvent) error
	Close() error
}
