package graph

import "context"

// Driver is the graph-memory service contract. Client is the HTTP
// implementation; tests substitute fakes that simulate outage modes.
type Driver interface {
	// Put stores or replaces a third-person document.
	Put(ctx context.Context, doc Document) error

	// Delete removes a document by id.
	Delete(ctx context.Context, id string) error

	// DeleteOwner bulk-deletes an owner's documents.
	DeleteOwner(ctx context.Context, ownerID string) (int, error)

	// Search queries an owner's documents.
	Search(ctx context.Context, ownerID, query string, limit int) ([]SearchResult, error)

	// EntityCount returns an owner's document count.
	EntityCount(ctx context.Context, ownerID string) (int, error)
}

var _ Driver = (*Client)(nil)
