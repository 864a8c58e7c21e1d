package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryStored is emitted after a memory is written to the
	// local store, whether or not the graph write succeeded.
	EventTypeMemoryStored = "keepsake.memory.stored"

	// EventTypeMemoryDeleted is emitted after a memory is deleted.
	EventTypeMemoryDeleted = "keepsake.memory.deleted"

	// EventTypeMemoryCleared is emitted after an owner's memories are
	// bulk-cleared.
	EventTypeMemoryCleared = "keepsake.memory.cleared"
)

// MemoryEvent is a transport-neutral event payload for a memory state
// change. Downstream consumers (reconciliation jobs, analytics) key on
// EventType and OwnerID.
type MemoryEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	OwnerID       string    `json:"owner_id"`

	// RecordID is set for stored and deleted events.
	RecordID string `json:"record_id,omitempty"`

	// Topics carries the stored record's classification labels.
	Topics []string `json:"topics,omitempty"`

	// GraphSynced is false when the graph write failed and the record is
	// local-only, pending reconciliation.
	GraphSynced bool `json:"graph_synced"`

	// Cleared is the number of records removed by a cleared event.
	Cleared int `json:"cleared,omitempty"`
}
