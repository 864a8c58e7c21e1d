// Package coordinator sequences the memory pipeline: validation, duplicate
// detection, topic classification, confidence scoring, autobiographical
// timestamping, and the dual write to the local store and the graph
// service.
//
// The local store is the system of record; the graph service is a
// best-effort secondary index. A graph failure degrades a store to
// local-only and is reported for sync-status purposes, never silently
// dropped and never fatal. A local failure is fatal.
//
// Writes for one user are serialized by a per-user lock so concurrent
// stores cannot race on the duplicate-detection window. Graph calls are
// bounded by the client's timeout, so holding the lock across the single
// remote call cannot stall a user indefinitely, and other users are
// unaffected either way. Read paths take no locks and are safe to abandon
// via context cancellation.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/confidence"
	"github.com/keepsakehq/keepsake/pkg/dedup"
	"github.com/keepsakehq/keepsake/pkg/eventstream"
	"github.com/keepsakehq/keepsake/pkg/graph"
	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/restate"
	"github.com/keepsakehq/keepsake/pkg/staging"
	"github.com/keepsakehq/keepsake/pkg/store"
	"github.com/keepsakehq/keepsake/pkg/topic"
)

// Config holds the coordinator's collaborators and tunables.
type Config struct {
	// Local is the system of record. Required.
	Local store.Driver

	// Graph is the secondary index client. Optional; when nil every
	// store degrades to local-only.
	Graph graph.Driver

	// Classifier labels content and expands queries. Required.
	Classifier *topic.Classifier

	// Detector performs duplicate detection. Required.
	Detector *dedup.Detector

	// Publisher receives memory events. Optional.
	Publisher eventstream.Publisher

	// Stager manages raw input artifacts. Optional; clear_all skips the
	// purge when nil.
	Stager *staging.Stager

	// MaxContentLen caps content length in characters. Defaults to
	// record.DefaultMaxContentLen if zero.
	MaxContentLen int

	// Logger is the configured zap logger. Required.
	Logger *zap.Logger

	// now overrides the clock in tests.
	now func() time.Time
}

// Coordinator is the single writer to both memory backends.
type Coordinator struct {
	config Config

	// userLocks serializes write operations per owner id.
	userLocks sync.Map // string -> *sync.Mutex
}

// NewCoordinator validates collaborators and creates a coordinator.
func NewCoordinator(c Config) (*Coordinator, error) {
	if c.Local == nil {
		return nil, fmt.Errorf("local store driver is required")
	}
	if c.Classifier == nil {
		return nil, fmt.Errorf("topic classifier is required")
	}
	if c.Detector == nil {
		return nil, fmt.Errorf("duplicate detector is required")
	}
	if c.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if c.MaxContentLen <= 0 {
		c.MaxContentLen = record.DefaultMaxContentLen
	}
	if c.now == nil {
		c.now = time.Now
	}

	return &Coordinator{config: c}, nil
}

// StoreOptions carries the optional inputs to Store.
type StoreOptions struct {
	// IsProxy marks the statement as authored by an automated
	// collaborator; proxy memories are fully trusted.
	IsProxy bool

	// ProxyAgent names the authoring collaborator. Required when
	// IsProxy is set.
	ProxyAgent string

	// Confidence is an explicit reliability score, or confidence.Unset
	// when the caller supplied none.
	Confidence float64
}

// DefaultStoreOptions returns options with no explicit confidence.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{Confidence: confidence.Unset}
}

// Store runs the full pipeline for one statement. Expected rejections
// (empty, too long, duplicate, invalid input) come back as statuses with a
// nil error; only infrastructure failures return a non-nil error, and then
// the result still carries StatusStorageError.
func (c *Coordinator) Store(ctx context.Context, text string, user *record.User, opts StoreOptions) (*StoreResult, error) {
	now := c.config.now()

	// Validate.
	if user == nil || user.ID == "" {
		return &StoreResult{Status: StatusValidationError, Message: "user is required"}, nil
	}
	if err := user.Validate(now); err != nil {
		return &StoreResult{Status: StatusValidationError, Message: err.Error()}, nil
	}
	if opts.IsProxy && opts.ProxyAgent == "" {
		return &StoreResult{Status: StatusValidationError, Message: "proxy memories must name the proxy agent"}, nil
	}
	if !confidence.Valid(opts.Confidence) {
		return &StoreResult{Status: StatusValidationError, Message: "confidence must be between 0 and 1"}, nil
	}

	content := record.NormalizeContent(text)
	if content == "" {
		return &StoreResult{Status: StatusContentEmpty}, nil
	}
	if len([]rune(content)) > c.config.MaxContentLen {
		return &StoreResult{
			Status:  StatusContentTooLong,
			Message: fmt.Sprintf("content exceeds %d characters", c.config.MaxContentLen),
		}, nil
	}

	// The write path is serialized per user from here: the duplicate
	// window must not move under us between the check and the write.
	unlock := c.lockUser(user.ID)
	defer unlock()

	// Dedup.
	recent, err := c.config.Local.Recent(ctx, user.ID, c.config.Detector.Window())
	if err != nil {
		c.config.Logger.Error("loading duplicate window", zap.String("owner_id", user.ID), zap.Error(err))
		return &StoreResult{Status: StatusStorageError, Message: err.Error()}, err
	}

	match := c.config.Detector.Check(content, texts(recent))
	if match.Found {
		status := StatusDuplicateSemantic
		if match.Exact {
			status = StatusDuplicateExact
		}
		return &StoreResult{Status: status, MatchedText: match.MatchedText, Score: match.Score}, nil
	}

	// Classify, score, timestamp.
	rec := &record.Record{
		ID:         uuid.NewString(),
		Content:    content,
		Topics:     c.config.Classifier.Classify(content),
		Confidence: confidence.Resolve(opts.IsProxy, opts.Confidence, user),
		IsProxy:    opts.IsProxy,
		ProxyAgent: opts.ProxyAgent,
		CreatedAt:  user.EventTime(now),
		OwnerID:    user.ID,
	}

	// Local write. Must complete before returning: a partial local write
	// would corrupt the duplicate window for subsequent calls.
	if err := c.config.Local.Put(ctx, rec); err != nil {
		c.config.Logger.Error("local store write failed",
			zap.String("owner_id", user.ID),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return &StoreResult{Status: StatusStorageError, Message: err.Error()}, err
	}

	// Graph write, third-person payload, best-effort.
	synced := c.graphPut(ctx, rec, user)

	status := StatusSuccess
	if !synced {
		status = StatusSuccessLocalOnly
	}

	c.publish(ctx, &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeMemoryStored,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		OwnerID:       user.ID,
		RecordID:      rec.ID,
		Topics:        rec.Topics,
		GraphSynced:   synced,
	})

	return &StoreResult{Status: status, Record: rec, GraphSynced: synced}, nil
}

// Update re-validates and re-classifies new content for an existing
// record and rewrites both stores. Duplicate detection skips the record's
// own prior content but still guards against colliding with its siblings.
func (c *Coordinator) Update(ctx context.Context, id, text string, user *record.User) (*StoreResult, error) {
	now := c.config.now()

	if user == nil || user.ID == "" {
		return &StoreResult{Status: StatusValidationError, Message: "user is required"}, nil
	}

	content := record.NormalizeContent(text)
	if content == "" {
		return &StoreResult{Status: StatusContentEmpty}, nil
	}
	if len([]rune(content)) > c.config.MaxContentLen {
		return &StoreResult{
			Status:  StatusContentTooLong,
			Message: fmt.Sprintf("content exceeds %d characters", c.config.MaxContentLen),
		}, nil
	}

	unlock := c.lockUser(user.ID)
	defer unlock()

	existing, err := c.config.Local.Get(ctx, id)
	if err != nil {
		return &StoreResult{Status: StatusValidationError, Message: err.Error()}, nil
	}
	if existing.OwnerID != user.ID {
		return &StoreResult{Status: StatusValidationError, Message: "record does not belong to this user"}, nil
	}

	recent, err := c.config.Local.Recent(ctx, user.ID, c.config.Detector.Window())
	if err != nil {
		return &StoreResult{Status: StatusStorageError, Message: err.Error()}, err
	}

	// Compare against everything except the record being updated, so
	// rewording a memory is never rejected for resembling itself.
	others := make([]string, 0, len(recent))
	for _, r := range recent {
		if r.ID != id {
			others = append(others, r.Content)
		}
	}

	match := c.config.Detector.Check(content, others)
	if match.Found {
		status := StatusDuplicateSemantic
		if match.Exact {
			status = StatusDuplicateExact
		}
		return &StoreResult{Status: status, MatchedText: match.MatchedText, Score: match.Score}, nil
	}

	updated := *existing
	updated.Content = content
	updated.Topics = c.config.Classifier.Classify(content)

	if err := c.config.Local.Put(ctx, &updated); err != nil {
		c.config.Logger.Error("local store update failed",
			zap.String("record_id", id),
			zap.Error(err),
		)
		return &StoreResult{Status: StatusStorageError, Message: err.Error()}, err
	}

	synced := c.graphPut(ctx, &updated, user)

	status := StatusSuccess
	if !synced {
		status = StatusSuccessLocalOnly
	}

	c.publish(ctx, &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeMemoryStored,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		OwnerID:       user.ID,
		RecordID:      updated.ID,
		Topics:        updated.Topics,
		GraphSynced:   synced,
	})

	return &StoreResult{Status: status, Record: &updated, GraphSynced: synced}, nil
}

// Delete removes a record from both stores, best-effort and independently
// reported. Local deletion is authoritative: a graph failure never fails
// the call.
func (c *Coordinator) Delete(ctx context.Context, id string, user *record.User) (*DeleteReport, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	unlock := c.lockUser(user.ID)
	defer unlock()

	report := &DeleteReport{ID: id}

	if err := c.config.Local.Delete(ctx, id); err != nil {
		return report, fmt.Errorf("deleting record %s: %w", id, err)
	}
	report.LocalDeleted = true

	if c.config.Graph != nil {
		if err := c.config.Graph.Delete(ctx, id); err != nil {
			report.GraphError = err.Error()
			c.config.Logger.Warn("graph delete failed",
				zap.String("record_id", id),
				zap.Error(err),
			)
		} else {
			report.GraphDeleted = true
		}
	}

	c.publish(ctx, &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeMemoryDeleted,
		EventID:       uuid.NewString(),
		EmittedAt:     c.config.now(),
		OwnerID:       user.ID,
		RecordID:      id,
		GraphSynced:   report.GraphDeleted,
	})

	return report, nil
}

// ClearAll removes every trace of a user's memory: the local rows (with a
// post-clear verification read), the graph documents, and any staged raw
// input artifacts that could reintroduce cleared statements. The exclusive
// per-user lock spans all three so a concurrent store cannot resurrect a
// record mid-clear.
func (c *Coordinator) ClearAll(ctx context.Context, user *record.User) (*ClearReport, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	unlock := c.lockUser(user.ID)
	defer unlock()

	report := &ClearReport{OwnerID: user.ID}

	cleared, err := c.config.Local.Clear(ctx, user.ID)
	if err != nil {
		return report, fmt.Errorf("clearing local store for %s: %w", user.ID, err)
	}
	report.LocalCleared = cleared

	// Verification read: the driver already guarantees atomicity, but
	// the caller of a clear deserves an observed zero, not an inferred
	// one.
	remaining, err := c.config.Local.Count(ctx, user.ID)
	if err != nil {
		return report, fmt.Errorf("verifying clear for %s: %w", user.ID, err)
	}
	report.LocalVerified = remaining == 0

	if c.config.Graph != nil {
		deleted, err := c.config.Graph.DeleteOwner(ctx, user.ID)
		if err != nil {
			report.GraphError = err.Error()
			c.config.Logger.Warn("graph bulk delete failed",
				zap.String("owner_id", user.ID),
				zap.Error(err),
			)
		} else {
			report.GraphCleared = deleted
		}
	}

	if c.config.Stager != nil {
		purged, err := c.config.Stager.Purge(user.ID)
		report.StagedPurged = purged
		if err != nil {
			report.StagingError = err.Error()
			c.config.Logger.Warn("staging purge failed",
				zap.String("owner_id", user.ID),
				zap.Error(err),
			)
		}
	}

	c.publish(ctx, &eventstream.MemoryEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeMemoryCleared,
		EventID:       uuid.NewString(),
		EmittedAt:     c.config.now(),
		OwnerID:       user.ID,
		GraphSynced:   report.GraphError == "",
		Cleared:       report.LocalCleared,
	})

	return report, nil
}

// graphPut writes the third-person restatement of a record to the graph
// service. Returns whether the write succeeded; failures are logged and
// degrade the operation, never fail it.
func (c *Coordinator) graphPut(ctx context.Context, rec *record.Record, user *record.User) bool {
	if c.config.Graph == nil {
		return false
	}

	restater := restate.NewRestater(user.DisplayName())

	err := c.config.Graph.Put(ctx, graph.Document{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Text:      restater.ToThirdPerson(rec.Content),
		Topics:    rec.Topics,
		Timestamp: rec.CreatedAt,
	})
	if err != nil {
		c.config.Logger.Warn("graph write failed, memory is local-only",
			zap.String("owner_id", rec.OwnerID),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return false
	}

	return true
}

// publish sends an event best-effort.
func (c *Coordinator) publish(ctx context.Context, event *eventstream.MemoryEvent) {
	if c.config.Publisher == nil {
		return
	}
	if err := c.config.Publisher.PublishMemory(ctx, event); err != nil {
		c.config.Logger.Warn("event publish failed",
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

// lockUser acquires the per-user write lock and returns its release func.
func (c *Coordinator) lockUser(ownerID string) func() {
	actual, _ := c.userLocks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func texts(records []*record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Content
	}
	return out
}
