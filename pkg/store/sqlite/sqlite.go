// Package sqlite provides a SQLite-backed local store driver.
//
// SQLite is the default system of record: a single file (or ":memory:"),
// no external service, durable across restarts. Similarity ranking happens
// in process via the shared store.Rank helper so that all drivers score
// identically.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/store"
)

// Driver implements store.Driver on SQLite via github.com/mattn/go-sqlite3.
type Driver struct {
	db     *sql.DB
	sim    store.TextSimilarity
	logger *zap.Logger
}

// NewDriver opens (or creates) the database at dbPath and ensures the
// schema. Use ":memory:" for an in-memory database.
func NewDriver(dbPath string, sim store.TextSimilarity, logger *zap.Logger) (*Driver, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if sim == nil {
		return nil, fmt.Errorf("text similarity is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite local store initialized", zap.String("db_path", dbPath))

	return &Driver{db: db, sim: sim, logger: logger}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	content     TEXT NOT NULL,
	topics      TEXT NOT NULL DEFAULT '[]',
	confidence  REAL NOT NULL,
	is_proxy    INTEGER NOT NULL DEFAULT 0,
	proxy_agent TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_owner_created
	ON memories(owner_id, created_at DESC);
`

// Put inserts or replaces a record by id.
func (d *Driver) Put(ctx context.Context, rec *record.Record) error {
	topics, err := json.Marshal(rec.Topics)
	if err != nil {
		return fmt.Errorf("encoding topics: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO memories
			(id, owner_id, content, topics, confidence, is_proxy, proxy_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Content, string(topics),
		rec.Confidence, rec.IsProxy, rec.ProxyAgent, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.ID, err)
	}

	return nil
}

// Get retrieves a record by id.
func (d *Driver) Get(ctx context.Context, id string) (*record.Record, error) {
	row := d.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %s: %w", id, err)
	}

	return rec, nil
}

// Query loads the owner's records and ranks them with the shared helper.
func (d *Driver) Query(ctx context.Context, filter store.Filter) ([]store.QueryResult, error) {
	records, err := d.ownerRecords(ctx, filter.OwnerID, 0)
	if err != nil {
		return nil, err
	}

	return store.Rank(records, filter, d.sim), nil
}

// Recent returns up to n of the owner's most recent records, newest first.
func (d *Driver) Recent(ctx context.Context, ownerID string, n int) ([]*record.Record, error) {
	return d.ownerRecords(ctx, ownerID, n)
}

// List returns all of the owner's records, newest first.
func (d *Driver) List(ctx context.Context, ownerID string) ([]*record.Record, error) {
	return d.ownerRecords(ctx, ownerID, 0)
}

// Delete removes a record by id.
func (d *Driver) Delete(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of %s: %w", id, err)
	}
	if affected == 0 {
		return store.ErrNotFound{ID: id}
	}

	return nil
}

// Clear removes all of the owner's records inside one transaction and
// verifies that no rows survive before committing.
func (d *Driver) Clear(ctx context.Context, ownerID string) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning clear transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("clearing records for %s: %w", ownerID, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared rows: %w", err)
	}

	// Post-delete verification inside the same transaction: a commit with
	// surviving rows would let a later read observe stale data.
	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE owner_id = ?`, ownerID,
	).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("verifying clear for %s: %w", ownerID, err)
	}
	if remaining != 0 {
		return 0, fmt.Errorf("clear verification failed for %s: %d rows remain", ownerID, remaining)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing clear for %s: %w", ownerID, err)
	}

	return int(deleted), nil
}

// Count returns the owner's record count.
func (d *Driver) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE owner_id = ?`, ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records for %s: %w", ownerID, err)
	}

	return count, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

const selectCols = `
	SELECT id, owner_id, content, topics, confidence, is_proxy, proxy_agent, created_at
	FROM memories`

func (d *Driver) ownerRecords(ctx context.Context, ownerID string, limit int) ([]*record.Record, error) {
	query := selectCols + ` WHERE owner_id = ? ORDER BY created_at DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*record.Record, error) {
	var (
		rec       record.Record
		topics    string
		createdAt time.Time
	)

	err := s.Scan(&rec.ID, &rec.OwnerID, &rec.Content, &topics,
		&rec.Confidence, &rec.IsProxy, &rec.ProxyAgent, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topics), &rec.Topics); err != nil {
		return nil, fmt.Errorf("decoding topics for %s: %w", rec.ID, err)
	}
	rec.CreatedAt = createdAt

	return &rec, nil
}
