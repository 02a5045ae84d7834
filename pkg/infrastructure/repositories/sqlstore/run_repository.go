package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	scenario TEXT NOT NULL,
	created_at_ns BIGINT NOT NULL,
	payload TEXT NOT NULL
)`

const createRunsIndex = `
CREATE INDEX IF NOT EXISTS idx_runs_kind_created
ON runs(kind, created_at_ns)`

// RunRepository stores run records in a SQL database
type RunRepository struct {
	db     *sql.DB
	driver string
}

// Verify interface compliance
var _ repositories.RunRepository = (*RunRepository)(nil)

// Open connects to the database and prepares the schema. For sqlite the dsn
// is a file path whose parent directories are created.
func Open(ctx context.Context, driver, dsn string) (*RunRepository, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "perishable.db"
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("postgres dsn cannot be empty")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to verify %s connection: %w", driver, err)
	}

	repo := NewRunRepository(db, driver)
	if err := repo.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewRunRepository wraps an open database. Call InitSchema before first use.
func NewRunRepository(db *sql.DB, driver string) *RunRepository {
	return &RunRepository{db: db, driver: driver}
}

// InitSchema creates the runs table and its index if missing
func (r *RunRepository) InitSchema(ctx context.Context) error {
	if r.db == nil {
		return errors.New("init schema: db is nil")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{createRunsTable, createRunsIndex} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

// Close releases the database handle
func (r *RunRepository) Close() error {
	return r.db.Close()
}

// Save inserts or replaces a record, assigning an id and timestamp when missing
func (r *RunRepository) Save(ctx context.Context, record *entities.RunRecord) error {
	if record == nil {
		return errors.New("run record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	q := r.rebind(`
	INSERT INTO runs (id, kind, scenario, created_at_ns, payload)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		kind = excluded.kind,
		scenario = excluded.scenario,
		created_at_ns = excluded.created_at_ns,
		payload = excluded.payload`)

	if _, err := r.db.ExecContext(ctx, q,
		record.ID, string(record.Kind), record.Scenario, record.CreatedAt.UnixNano(), string(record.Payload),
	); err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}
	return nil
}

// Get returns the record with the given id
func (r *RunRepository) Get(ctx context.Context, id string) (*entities.RunRecord, error) {
	q := r.rebind(`SELECT id, kind, scenario, created_at_ns, payload FROM runs WHERE id = ?`)
	record, err := scanRun(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return record, nil
}

// List returns the newest records of a kind, newest first. An empty kind matches all.
func (r *RunRepository) List(ctx context.Context, kind entities.RunKind, limit int) ([]*entities.RunRecord, error) {
	var (
		where string
		args  []interface{}
	)
	if kind != "" {
		where = " WHERE kind = ?"
		args = append(args, string(kind))
	}
	q := `SELECT id, kind, scenario, created_at_ns, payload FROM runs` + where + ` ORDER BY created_at_ns DESC, id ASC`
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*entities.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*entities.RunRecord, error) {
	var (
		record  entities.RunRecord
		kind    string
		created int64
		payload string
	)
	if err := s.Scan(&record.ID, &kind, &record.Scenario, &created, &payload); err != nil {
		return nil, err
	}
	record.Kind = entities.RunKind(kind)
	record.CreatedAt = time.Unix(0, created).UTC()
	record.Payload = []byte(payload)
	return &record, nil
}

// rebind rewrites ? placeholders to $n for postgres
func (r *RunRepository) rebind(q string) string {
	if r.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
