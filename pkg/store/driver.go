// Package store defines the driver interface for the fast local memory
// store — the system of record for keepsake memories.
//
// Drivers persist records verbatim (the user's own phrasing) and answer
// similarity-ranked queries over content. Ranking uses an injected
// TextSimilarity so every driver scores text the same way the duplicate
// detector does.
package store

import (
	"context"

	"github.com/keepsakehq/keepsake/pkg/record"
)

// TextSimilarity scores two texts in [0, 1]. The dedup detector satisfies
// this; drivers use it to rank query results.
type TextSimilarity interface {
	Similarity(a, b string) float64
}

// Filter narrows a Query call. OwnerID is required. When Terms is set the
// results are similarity-ranked against the terms; when Topics is set only
// records carrying at least one of the topics are returned. Both may be
// set.
type Filter struct {
	// OwnerID scopes the query to one user's records.
	OwnerID string

	// Terms are the expanded query terms to rank content against.
	Terms []string

	// Topics restricts results to records labeled with any of these.
	Topics []string

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// QueryResult is a record with its query similarity score.
type QueryResult struct {
	Record *record.Record

	// Score is the best similarity between the record's content and the
	// filter terms. 1.0 when the filter had no terms (pure topic or
	// list queries).
	Score float64
}

// Driver is the local store contract. All mutations go through the
// coordinator; drivers never change records on their own initiative.
type Driver interface {
	// Put inserts a record, or replaces it when the id already exists.
	Put(ctx context.Context, rec *record.Record) error

	// Get retrieves a record by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*record.Record, error)

	// Query returns the owner's records matching the filter, ranked by
	// similarity descending with ties broken most-recent-first.
	Query(ctx context.Context, filter Filter) ([]QueryResult, error)

	// Recent returns up to n of the owner's most recent records, newest
	// first. This feeds the duplicate-detection window.
	Recent(ctx context.Context, ownerID string, n int) ([]*record.Record, error)

	// List returns all of the owner's records, newest first.
	List(ctx context.Context, ownerID string) ([]*record.Record, error)

	// Delete removes a record by id. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Clear atomically removes all of the owner's records and returns
	// the number removed. A read after Clear returns cannot observe
	// stale rows.
	Clear(ctx context.Context, ownerID string) (int, error)

	// Count returns the owner's record count.
	Count(ctx context.Context, ownerID string) (int, error)

	// Close releases driver resources.
	Close() error
}
