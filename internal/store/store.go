// Package store implements SQLite persistence for the lifecycle server.
//
// All lifecycle entities (requirements, tasks, architecture documents),
// their typed join tables, and the append-only review/event logs live in
// a single database. Multi-step mutations run inside one transaction,
// including identifier allocation, so concurrent tool calls can never
// observe or produce duplicate IDs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Package-level vars to allow test injection.
var (
	openDB  = sql.Open
	timeNow = time.Now
)

// retry policy for SQLITE_BUSY. The driver already waits up to
// busy_timeout; this covers the cases where the timeout itself expires
// under write contention.
const (
	busyRetries   = 5
	busyBaseDelay = 10 * time.Millisecond
)

// Store is the lifecycle database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the lifecycle database at path,
// applies the connection pragmas, and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Transactions & retry ────────────────────────────────────────────────────

// isBusy reports whether err is a transient SQLite contention error.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// withTx runs fn inside a transaction, retrying the whole transaction
// with exponential backoff when SQLite reports contention. Any other
// error rolls back and returns immediately.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.runTx(fn)
		if !isBusy(err) || attempt >= busyRetries {
			return err
		}
		time.Sleep(busyBaseDelay << attempt)
	}
}

func (s *Store) runTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ─── Small helpers ───────────────────────────────────────────────────────────

// nextID computes max(column)+1 within the current transaction,
// optionally scoped by a WHERE clause. Running inside the insert's own
// transaction is what makes allocation race-free.
func nextID(tx *sql.Tx, table, column, where string, args ...any) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", column, table)
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := tx.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: next id for %s.%s: %w", table, column, err)
	}
	return n, nil
}

// nowUTC returns the canonical timestamp format used throughout the schema.
func nowUTC() string {
	return timeNow().UTC().Format("2006-01-02 15:04:05")
}

// marshalList serializes a string list for a JSON text column.
// Nil and empty both store as "[]" so readers never see NULL.
func marshalList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// unmarshalList parses a JSON text column back into a string list.
// Malformed or empty content reads as an empty list rather than an error;
// a corrupt presentation column must not make an entity unreadable.
func unmarshalList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil
	}
	return items
}

// marshalObject serializes an arbitrary JSON object column.
func marshalObject(v map[string]any) string {
	if len(v) == 0 {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// unmarshalObject parses a JSON object column, tolerating malformed content.
func unmarshalObject(raw sql.NullString) map[string]any {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(raw.String), &v); err != nil {
		return nil
	}
	return v
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// ─── Audit log & reviews ─────────────────────────────────────────────────────

// logEvent appends to the lifecycle audit log inside tx. Events are
// best-effort: a failed append is logged and swallowed so it can never
// fail the operation it records.
func logEvent(tx *sql.Tx, entityType, entityID, eventType, fromValue, toValue, actor string) {
	_, err := tx.Exec(`
		INSERT INTO lifecycle_events (entity_type, entity_id, event_type, from_value, to_value, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entityType, entityID, eventType, nullable(fromValue), nullable(toValue), nullable(actor), nowUTC())
	if err != nil {
		log.Printf("WARNING: lifecycle event append failed for %s %s: %v", entityType, entityID, err)
	}
}

// addReview appends a review comment inside tx. Best-effort, same as events.
func addReview(tx *sql.Tx, entityType, entityID, reviewer, comment string) {
	_, err := tx.Exec(`
		INSERT INTO reviews (entity_type, entity_id, reviewer, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entityType, entityID, reviewer, comment, nowUTC())
	if err != nil {
		log.Printf("WARNING: review append failed for %s %s: %v", entityType, entityID, err)
	}
}

// Review is one review comment on an entity.
type Review struct {
	ID         int64  `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Reviewer   string `json:"reviewer"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// ListReviews returns the review comments for an entity, oldest first.
func (s *Store) ListReviews(entityType, entityID string) ([]Review, error) {
	rows, err := s.db.Query(`
		SELECT id, entity_type, entity_id, reviewer, comment, created_at
		FROM reviews
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("store: list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.EntityType, &r.EntityID, &r.Reviewer, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// LifecycleEvent is one entry in the append-only audit log.
type LifecycleEvent struct {
	ID         int64  `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	EventType  string `json:"event_type"`
	FromValue  string `json:"from_value,omitempty"`
	ToValue    string `json:"to_value,omitempty"`
	Actor      string `json:"actor,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListEvents returns the audit log for an entity, oldest first.
func (s *Store) ListEvents(entityType, entityID string) ([]LifecycleEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, entity_type, entity_id, event_type, from_value, to_value, actor, created_at
		FROM lifecycle_events
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var events []LifecycleEvent
	for rows.Next() {
		var (
			ev              LifecycleEvent
			from, to, actor sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.EntityType, &ev.EntityID, &ev.EventType, &from, &to, &actor, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		ev.FromValue, ev.ToValue, ev.Actor = fromNull(from), fromNull(to), fromNull(actor)
		events = append(events, ev)
	}
	return events, rows.Err()
}
