package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/restate"
	"github.com/keepsakehq/keepsake/pkg/store"
)

// Query expands the query text bidirectionally through the topic rules
// and runs a similarity search over the local store. Results come back
// ranked by similarity descending, ties most-recent-first. Read paths
// take no locks.
func (c *Coordinator) Query(ctx context.Context, text string, user *record.User, limit int) ([]QueryResult, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	terms := c.expandQuery(text)

	results, err := c.config.Local.Query(ctx, store.Filter{
		OwnerID: user.ID,
		Terms:   terms,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying local store: %w", err)
	}

	return convert(results), nil
}

// QueryByTopic expands each requested topic or keyword bidirectionally
// before filtering, so "education" finds records filed under "academic"
// and vice versa.
func (c *Coordinator) QueryByTopic(ctx context.Context, topics []string, user *record.User, limit int) ([]QueryResult, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	seen := make(map[string]bool)
	var expanded []string
	for _, t := range topics {
		for _, term := range c.config.Classifier.Expand(t) {
			if !seen[term] {
				seen[term] = true
				expanded = append(expanded, term)
			}
		}
	}

	results, err := c.config.Local.Query(ctx, store.Filter{
		OwnerID: user.ID,
		Topics:  expanded,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying local store by topic: %w", err)
	}

	return convert(results), nil
}

// ListAll returns the user's memory contents only, in their original
// phrasing, newest first. This is the cheap variant for "what do you know
// about me" summaries; full metadata is GetAll's job.
func (c *Coordinator) ListAll(ctx context.Context, user *record.User) ([]string, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	records, err := c.config.Local.List(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	contents := make([]string, len(records))
	for i, rec := range records {
		contents[i] = rec.Content
	}

	return contents, nil
}

// GetAll returns the user's records with full metadata, newest first.
// Reserved for explicit "give me full details" requests; general listing
// defaults to ListAll to bound response cost.
func (c *Coordinator) GetAll(ctx context.Context, user *record.User) ([]*record.Record, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	records, err := c.config.Local.List(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	return records, nil
}

// GetStats summarizes an owner's memory: total count, topic histogram,
// most recent record.
func (c *Coordinator) GetStats(ctx context.Context, user *record.User) (*Stats, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	records, err := c.config.Local.List(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	stats := &Stats{
		Total:  len(records),
		Topics: make(map[string]int),
	}

	for _, rec := range records {
		for _, t := range rec.Topics {
			stats.Topics[t]++
		}
	}

	if len(records) > 0 {
		// List returns newest first.
		stats.MostRecent = records[0]
	}

	return stats, nil
}

// GraphEntityCount compares the local record count against the graph
// service's document count for sync-status reporting. A graph outage is
// reported, not raised.
func (c *Coordinator) GraphEntityCount(ctx context.Context, user *record.User) (*SyncStatus, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	local, err := c.config.Local.Count(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("counting local records: %w", err)
	}

	status := &SyncStatus{LocalCount: local}

	if c.config.Graph == nil {
		return status, nil
	}

	count, err := c.config.Graph.EntityCount(ctx, user.ID)
	if err != nil {
		status.GraphError = err.Error()
		return status, nil
	}

	status.GraphAvailable = true
	status.GraphCount = count
	status.InSync = count == local

	return status, nil
}

// Restate rewrites stored third-person graph text for presentation to the
// user in the second person.
func (c *Coordinator) Restate(text string, user *record.User) string {
	return restate.NewRestater(user.DisplayName()).ToSecondPerson(text)
}

// expandQuery expands the whole query plus each of its words through the
// topic rules, deduplicated, with the original text first.
func (c *Coordinator) expandQuery(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	seen := map[string]bool{strings.ToLower(text): true}
	terms := []string{strings.ToLower(text)}

	add := func(term string) {
		for _, t := range c.config.Classifier.Expand(term) {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}

	add(text)
	for _, word := range strings.Fields(text) {
		add(word)
	}

	return terms
}

func convert(results []store.QueryResult) []QueryResult {
	out := make([]QueryResult, len(results))
	for i, r := range results {
		out[i] = QueryResult{Record: r.Record, Score: r.Score}
	}
	return out
}
