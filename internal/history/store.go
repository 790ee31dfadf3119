// Package history persists a best-effort audit trail of tool
// invocations and build-stage runs. Store failures are logged and never
// fail the tool call that produced the record.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/javakit/mvnbridge-mcp/internal/invoke"
)

// Invocation is one recorded tool call.
type Invocation struct {
	ID        string
	Tool      string
	Arguments string // JSON
	OK        bool
	ErrKind   string
	Duration  time.Duration
	StartedAt time.Time
}

// BuildRun is one recorded build-stage execution.
type BuildRun struct {
	Stage        string
	ErrorCount   int
	WarningCount int
	Aborted      bool
	Duration     time.Duration
	RanAt        time.Time
}

// Store is the SQLite-backed history store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or opens the history database at dbPath, creating parent
// directories and applying migrations.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// WAL for concurrent readers; single writer suits SQLite.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordInvocation implements invoke.Recorder. Failures are logged.
func (s *Store) RecordInvocation(ctx context.Context, rec invoke.InvocationRecord) {
	args, err := json.Marshal(rec.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, tool, arguments, ok, err_kind, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tool, string(args), boolToInt(rec.OK), string(rec.ErrKind),
		rec.Duration.Milliseconds(), rec.StartedAt.UTC())
	if err != nil {
		s.logger.Warn("failed to record invocation", zap.String("tool", rec.Tool), zap.Error(err))
	}
}

// RecordBuild stores one build-stage run. Failures are logged.
func (s *Store) RecordBuild(ctx context.Context, run BuildRun) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_runs (stage, error_count, warning_count, aborted, duration_ms, ran_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Stage, run.ErrorCount, run.WarningCount, boolToInt(run.Aborted),
		run.Duration.Milliseconds(), run.RanAt.UTC())
	if err != nil {
		s.logger.Warn("failed to record build run", zap.String("stage", run.Stage), zap.Error(err))
	}
}

// RecentInvocations returns the newest invocations, most recent first.
func (s *Store) RecentInvocations(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, arguments, ok, err_kind, duration_ms, started_at
		 FROM invocations ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Invocation
	for rows.Next() {
		var (
			inv        Invocation
			ok         int
			durationMs int64
		)
		if err := rows.Scan(&inv.ID, &inv.Tool, &inv.Arguments, &ok, &inv.ErrKind, &durationMs, &inv.StartedAt); err != nil {
			return nil, err
		}
		inv.OK = ok != 0
		inv.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RecentBuilds returns the newest build runs, most recent first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]BuildRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, error_count, warning_count, aborted, duration_ms, ran_at
		 FROM build_runs ORDER BY ran_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []BuildRun
	for rows.Next() {
		var (
			run        BuildRun
			aborted    int
			durationMs int64
		)
		if err := rows.Scan(&run.Stage, &run.ErrorCount, &run.WarningCount, &aborted, &durationMs, &run.RanAt); err != nil {
			return nil, err
		}
		run.Aborted = aborted != 0
		run.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
