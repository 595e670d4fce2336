package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cftrigger/internal/config"
	"cftrigger/internal/logger"
	"cftrigger/internal/storage/models"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an invocation does not exist
var ErrNotFound = errors.New("invocation not found")

// ErrDisabled is returned by Open when the configured driver is none
var ErrDisabled = errors.New("storage disabled")

const timeLayout = "2006-01-02 15:04:05.000000"

// Store keeps invocation history in SQLite or PostgreSQL
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and creates the schema
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var dsn string
	switch cfg.Driver {
	case "sqlite3":
		dsn = cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_busy_timeout=5000"
	case "postgres":
		dsn = cfg.DSN
	case "none":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers; the pool mostly serves concurrent reads
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("Database initialized successfully", "driver", cfg.Driver)
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		api_key TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		service_id TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL DEFAULT '',
		build_id TEXT NOT NULL DEFAULT '',
		progress_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		passed INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL DEFAULT '',
		polls INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	)
	`)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_invocations_started_at ON invocations (started_at)`)
	return err
}

// InsertInvocation records a finished invocation
func (s *Store) InsertInvocation(ctx context.Context, inv models.Invocation) error {
	passed := 0
	if inv.Passed {
		passed = 1
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO invocations (id, started_at, finished_at, source, api_key, mode, target, service_id, branch, build_id, progress_id, status, passed, url, polls, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID,
		formatTime(inv.StartedAt),
		formatTime(inv.FinishedAt),
		inv.Source,
		inv.APIKey,
		inv.Mode,
		inv.Target,
		inv.ServiceID,
		inv.Branch,
		inv.BuildID,
		inv.ProgressID,
		inv.Status,
		passed,
		inv.URL,
		inv.Polls,
		inv.Error,
	)
	if err != nil {
		logger.Error("Failed to insert invocation", "error", err, "id", inv.ID)
		return err
	}
	return nil
}

const selectColumns = `SELECT id, started_at, finished_at, source, api_key, mode, target, service_id, branch, build_id, progress_id, status, passed, url, polls, error FROM invocations`

// GetInvocations returns invocations newest first
func (s *Store) GetInvocations(ctx context.Context, limit, offset int) ([]models.Invocation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectColumns+` ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invocations := []models.Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invocations, nil
}

// GetInvocation returns a single invocation by id
func (s *Store) GetInvocation(ctx context.Context, id string) (*models.Invocation, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?`), id)
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row scanner) (models.Invocation, error) {
	var inv models.Invocation
	var startedAt, finishedAt string
	var passed int

	if err := row.Scan(
		&inv.ID,
		&startedAt,
		&finishedAt,
		&inv.Source,
		&inv.APIKey,
		&inv.Mode,
		&inv.Target,
		&inv.ServiceID,
		&inv.Branch,
		&inv.BuildID,
		&inv.ProgressID,
		&inv.Status,
		&passed,
		&inv.URL,
		&inv.Polls,
		&inv.Error,
	); err != nil {
		return inv, err
	}

	inv.StartedAt = parseTime(startedAt)
	inv.FinishedAt = parseTime(finishedAt)
	inv.Passed = passed != 0
	return inv, nil
}

// rebind rewrites ? placeholders to $n for postgres
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// Older rows may lack the fractional part
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
