// Package history keeps a queryable copy of mirrored log lines in SQLite.
//
// A Store is a mirror sink: every sanitized line the file mirror receives
// is also inserted here, tagged with the id of the process session that
// produced it, so `outlog history` can show recent output across runs.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Record is one stored line.
type Record struct {
	ID        int64
	Session   string
	Line      string
	CreatedAt time.Time
}

// Store manages the history database.
type Store struct {
	db      *sql.DB
	dbPath  string
	session string
}

// NewStore opens (creating if needed) the database at dbPath and starts a
// new session. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: an in-memory database is per connection, and the
	// store is written from a single goroutine at a time anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{
		db:      db,
		dbPath:  dbPath,
		session: uuid.NewString(),
	}, nil
}

// execWithRetry retries statements that fail with "database is locked",
// which happens when a parent and child process open the same file.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Session returns the id stamped on lines appended through this store.
func (s *Store) Session() string {
	return s.session
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// AppendLine stores one line. It satisfies mirror.Sink.
func (s *Store) AppendLine(line string) error {
	return s.Append(context.Background(), line)
}

// Append stores one line for the current session.
func (s *Store) Append(ctx context.Context, line string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lines (session, line, created_at) VALUES (?, ?, ?)`,
		s.session, line, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert history line: %w", err)
	}
	return nil
}

// Recent returns up to limit lines, oldest first. A limit <= 0 returns
// every line. A non-empty session restricts the result to that session.
func (s *Store) Recent(ctx context.Context, session string, limit int) ([]Record, error) {
	query := `SELECT id, session, line, created_at FROM lines`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Session, &r.Line, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Sessions returns session ids, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session FROM lines GROUP BY session ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
