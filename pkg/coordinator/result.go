package coordinator

import (
	"fmt"

	"github.com/keepsakehq/keepsake/pkg/record"
)

// Status is the structured outcome of a store or update operation. Every
// path through the pipeline resolves to exactly one status; no path
// returns an ambiguous nil.
type Status string

const (
	// StatusSuccess means both the local and graph writes succeeded.
	StatusSuccess Status = "SUCCESS"

	// StatusSuccessLocalOnly means the local write succeeded but the
	// graph write failed or the graph is not configured. The memory is
	// stored and retrievable, flagged unsynced.
	StatusSuccessLocalOnly Status = "SUCCESS_LOCAL_ONLY"

	// StatusContentEmpty means the content was empty after trimming.
	StatusContentEmpty Status = "CONTENT_EMPTY"

	// StatusContentTooLong means the content exceeded the length cap.
	StatusContentTooLong Status = "CONTENT_TOO_LONG"

	// StatusDuplicateExact means an existing record matched exactly.
	StatusDuplicateExact Status = "DUPLICATE_EXACT"

	// StatusDuplicateSemantic means an existing record scored at or
	// above the similarity threshold.
	StatusDuplicateSemantic Status = "DUPLICATE_SEMANTIC"

	// StatusValidationError means the user or options were inconsistent.
	StatusValidationError Status = "VALIDATION_ERROR"

	// StatusStorageError means the local write failed. Fatal: the local
	// store is the system of record.
	StatusStorageError Status = "STORAGE_ERROR"
)

// Stored reports whether the status left a record in the local store.
func (s Status) Stored() bool {
	return s == StatusSuccess || s == StatusSuccessLocalOnly
}

// StoreResult is the outcome of a store or update call.
type StoreResult struct {
	Status Status `json:"status"`

	// Record is set when Status.Stored().
	Record *record.Record `json:"record,omitempty"`

	// MatchedText and Score are set for duplicate statuses: the existing
	// text that matched and its similarity.
	MatchedText string  `json:"matched_text,omitempty"`
	Score       float64 `json:"score,omitempty"`

	// Message carries detail for validation and storage failures.
	Message string `json:"message,omitempty"`

	// GraphSynced is true when the graph write succeeded.
	GraphSynced bool `json:"graph_synced"`
}

// Human renders the result as distinct, unambiguous user-facing phrasing.
// Wrappers at the tool boundary present this instead of the raw status.
func (r *StoreResult) Human() string {
	switch r.Status {
	case StatusSuccess:
		return "Saved."
	case StatusSuccessLocalOnly:
		return "Saved, but not yet synced to the graph service."
	case StatusContentEmpty:
		return "There is nothing to save."
	case StatusContentTooLong:
		return "That is too long to save as a single memory."
	case StatusDuplicateExact:
		return fmt.Sprintf("I already remember that: %q.", r.MatchedText)
	case StatusDuplicateSemantic:
		return fmt.Sprintf("That sounds like something I already remember: %q.", r.MatchedText)
	case StatusValidationError:
		return "Could not save: " + r.Message
	case StatusStorageError:
		return "Could not save that memory."
	default:
		return string(r.Status)
	}
}

// DeleteReport carries per-store delete outcomes. Local deletion is
// authoritative; a failed graph delete never fails the operation.
type DeleteReport struct {
	ID           string `json:"id"`
	LocalDeleted bool   `json:"local_deleted"`
	GraphDeleted bool   `json:"graph_deleted"`
	GraphError   string `json:"graph_error,omitempty"`
}

// ClearReport is the structured outcome of a clear_all: per-subsystem
// status, counts and errors — never a bare boolean.
type ClearReport struct {
	OwnerID string `json:"owner_id"`

	// LocalCleared is the number of records removed from the local
	// store; LocalVerified confirms the post-clear read saw zero rows.
	LocalCleared  int  `json:"local_cleared"`
	LocalVerified bool `json:"local_verified"`

	// GraphCleared is the number of graph documents removed, when the
	// service reported one.
	GraphCleared int    `json:"graph_cleared"`
	GraphError   string `json:"graph_error,omitempty"`

	// StagedPurged is the number of raw input artifacts removed so no
	// stale statement can be reingested after the clear.
	StagedPurged int    `json:"staged_purged"`
	StagingError string `json:"staging_error,omitempty"`
}

// QueryResult is one ranked hit from a query.
type QueryResult struct {
	Record *record.Record `json:"record"`
	Score  float64        `json:"score"`
}

// Stats summarizes an owner's memory.
type Stats struct {
	Total      int            `json:"total"`
	Topics     map[string]int `json:"topics"`
	MostRecent *record.Record `json:"most_recent,omitempty"`
}

// SyncStatus compares local and graph store contents for an owner.
type SyncStatus struct {
	LocalCount     int    `json:"local_count"`
	GraphCount     int    `json:"graph_count"`
	GraphAvailable bool   `json:"graph_available"`
	GraphError     string `json:"graph_error,omitempty"`
	InSync         bool   `json:"in_sync"`
}
