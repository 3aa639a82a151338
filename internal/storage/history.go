// Package storage persists extraction session history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/domain"
	"github.com/spherical/textgrab/internal/retry"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// ErrClosed is returned after Close.
var ErrClosed = errors.New("history store closed")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect selects placeholder style and DDL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// HistoryRepository stores finished session records.
type HistoryRepository struct {
	db      DB
	dialect Dialect
	closer  func() error
}

// NewHistoryRepository creates a repository over an existing connection.
func NewHistoryRepository(db DB, dialect Dialect) *HistoryRepository {
	return &HistoryRepository{db: db, dialect: dialect}
}

// Open connects using cfg and creates the schema. It returns nil for driver
// "none".
func Open(ctx context.Context, cfg config.HistoryConfig) (*HistoryRepository, error) {
	var driverName string
	var dialect Dialect
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		driverName, dialect = "sqlite3", DialectSQLite
	case "postgres":
		driverName, dialect = "postgres", DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := retry.Do(ctx, retry.DefaultConfig(), nil, "ping "+driverName, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := NewHistoryRepository(db, dialect)
	repo.closer = db.Close
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates the sessions table if it does not exist.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if r.dialect == DialectPostgres {
		ts = "TIMESTAMPTZ"
	}
	query := `
		CREATE TABLE IF NOT EXISTS extraction_sessions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			media_type TEXT NOT NULL,
			name TEXT NOT NULL,
			digest TEXT NOT NULL,
			language TEXT NOT NULL,
			page_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			text_length INTEGER NOT NULL,
			cached BOOLEAN NOT NULL,
			error TEXT NOT NULL,
			started_at ` + ts + ` NOT NULL,
			finished_at ` + ts + ` NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

// Record inserts or replaces a session record.
func (r *HistoryRepository) Record(ctx context.Context, rec domain.SessionRecord) error {
	if rec.ID == "" {
		return domain.ValidationError("session id is required", nil)
	}
	query := r.rebind(`
		INSERT INTO extraction_sessions (id, kind, media_type, name, digest, language,
			page_count, status, text_length, cached, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			text_length = excluded.text_length,
			page_count = excluded.page_count,
			error = excluded.error,
			finished_at = excluded.finished_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, string(rec.Kind), rec.MediaType, rec.Name, rec.Digest, rec.Language,
		rec.PageCount, string(rec.Status), rec.TextLength, rec.Cached, rec.Error,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, most recently started first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := r.rebind(`
		SELECT id, kind, media_type, name, digest, language, page_count, status,
			text_length, cached, error, started_at, finished_at
		FROM extraction_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []domain.SessionRecord
	for rows.Next() {
		var rec domain.SessionRecord
		var kind, status string
		if err := rows.Scan(
			&rec.ID, &kind, &rec.MediaType, &rec.Name, &rec.Digest, &rec.Language,
			&rec.PageCount, &status, &rec.TextLength, &rec.Cached, &rec.Error,
			&rec.StartedAt, &rec.FinishedAt,
		); err != nil {
			return nil, err
		}
		rec.Kind = domain.PayloadKind(kind)
		rec.Status = domain.SessionStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the connection when the repository owns it.
func (r *HistoryRepository) Close() error {
	if r.closer == nil {
		return nil
	}
	closer := r.closer
	r.closer = nil
	return closer()
}

// rebind converts ? placeholders to $n for postgres.
func (r *HistoryRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}
