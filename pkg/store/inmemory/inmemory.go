// Package inmemory provides an in-process store.Driver. It backs tests and
// local development; nothing survives a restart.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/store"
)

// Driver implements store.Driver using mutex-guarded maps.
type Driver struct {
	sim store.TextSimilarity

	mu sync.RWMutex

	// records maps record id -> record.
	records map[string]*record.Record
}

// NewDriver creates an empty in-memory driver.
func NewDriver(sim store.TextSimilarity) *Driver {
	return &Driver{
		sim:     sim,
		records: make(map[string]*record.Record),
	}
}

// Put inserts or replaces a record by id.
func (d *Driver) Put(_ context.Context, rec *record.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	clone := *rec
	d.records[rec.ID] = &clone
	return nil
}

// Get retrieves a record by id.
func (d *Driver) Get(_ context.Context, id string) (*record.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, store.ErrNotFound{ID: id}
	}

	clone := *rec
	return &clone, nil
}

// Query ranks the owner's records with the shared helper.
func (d *Driver) Query(_ context.Context, filter store.Filter) ([]store.QueryResult, error) {
	return store.Rank(d.ownerRecords(filter.OwnerID, 0), filter, d.sim), nil
}

// Recent returns up to n of the owner's most recent records, newest first.
func (d *Driver) Recent(_ context.Context, ownerID string, n int) ([]*record.Record, error) {
	return d.ownerRecords(ownerID, n), nil
}

// List returns all of the owner's records, newest first.
func (d *Driver) List(_ context.Context, ownerID string) ([]*record.Record, error) {
	return d.ownerRecords(ownerID, 0), nil
}

// Delete removes a record by id.
func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return store.ErrNotFound{ID: id}
	}

	delete(d.records, id)
	return nil
}

// Clear removes all of the owner's records under one lock hold, so no
// reader can observe a partial clear.
func (d *Driver) Clear(_ context.Context, ownerID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	for id, rec := range d.records {
		if rec.OwnerID == ownerID {
			delete(d.records, id)
			count++
		}
	}

	return count, nil
}

// Count returns the owner's record count.
func (d *Driver) Count(_ context.Context, ownerID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	for _, rec := range d.records {
		if rec.OwnerID == ownerID {
			count++
		}
	}

	return count, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) ownerRecords(ownerID string, limit int) []*record.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var records []*record.Record
	for _, rec := range d.records {
		if rec.OwnerID == ownerID {
			clone := *rec
			records = append(records, &clone)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records
}
