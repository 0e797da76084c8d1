package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/sashakt-platform/sashakt-ops/src/pkg/migration"
)

// Run statuses recorded in the audit store.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run is one recorded tool invocation.
type Run struct {
	ID         string
	Operation  string
	Argument   string
	Status     string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RevisionRecord is one ledger entry: a migration revision the tool has seen.
type RevisionRecord struct {
	RevisionID   string
	DownRevision string
	Filename     string
	RunID        string
	FirstSeenAt  time.Time
}

// Store is the local sqlite database auditing what the tool did and which
// revisions passed through it. All failures here are the caller's to ignore;
// auditing never blocks the actual operation.
type Store struct {
	db *sql.DB
}

// Open migrates the audit database to the newest schema and opens it.
func Open(dbPath string) (*Store, error) {
	schema, err := migration.GetSchema(DatabaseTypeOps)
	if err != nil {
		return nil, err
	}
	migrator, err := migration.NewMigrator(&migration.MigrationConfig{
		DBPath: dbPath,
		Schema: schema,
	})
	if err != nil {
		return nil, err
	}
	if recovered, err := migrator.CheckAndRecover(); err != nil {
		return nil, err
	} else if recovered {
		logrus.WithField("db_path", dbPath).Warn("audit database recovered from interrupted migration")
	}
	if _, err := migrator.Run(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of an operation and returns its id.
func (s *Store) BeginRun(ctx context.Context, operation, argument string) (string, error) {
	id := uuid.Must(uuid.NewV4()).String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, argument, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, operation, argument, RunStatusRunning, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// FinishRun closes a run with its final status and detail text.
func (s *Store) FinishRun(ctx context.Context, id, status, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`,
		status, detail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	return nil
}

// RecordRevision adds a revision to the ledger. Re-recording a known revision
// is a no-op, the first sighting wins.
func (s *Store) RecordRevision(ctx context.Context, runID, revisionID, downRevision, filename string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO revisions (revision_id, down_revision, filename, run_id, first_seen_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(revision_id) DO NOTHING`,
		revisionID, downRevision, filename, runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record revision: %w", err)
	}
	return nil
}

// ClearRevisions empties the ledger. Called when the migration history itself
// is reset.
func (s *Store) ClearRevisions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM revisions`); err != nil {
		return fmt.Errorf("failed to clear revision ledger: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, argument, status, detail, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Operation, &run.Argument, &run.Status,
			&run.Detail, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRevisions returns the ledger ordered by first sighting.
func (s *Store) ListRevisions(ctx context.Context) ([]*RevisionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision_id, down_revision, filename, run_id, first_seen_at
		 FROM revisions ORDER BY first_seen_at, revision_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var records []*RevisionRecord
	for rows.Next() {
		rec := &RevisionRecord{}
		if err := rows.Scan(&rec.RevisionID, &rec.DownRevision, &rec.Filename,
			&rec.RunID, &rec.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
