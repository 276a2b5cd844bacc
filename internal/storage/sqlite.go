package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuchenak/labeld/internal/model"
	_ "modernc.org/sqlite"
)

const dbFileName = "labeld.db"

// SQLiteStorage implements JobStorage on a local SQLite file
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (or creates) the database and applies migrations
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	ss := &SQLiteStorage{db: db, path: path}
	if err := ss.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ss, nil
}

func (ss *SQLiteStorage) migrate() error {
	for i, m := range []func() error{ss.MigrateToV1, ss.MigrateToV2} {
		if err := m(); err != nil {
			return fmt.Errorf("migrating to v%d: %w", i+1, err)
		}
	}
	return nil
}

// Path returns the database file location
func (ss *SQLiteStorage) Path() string {
	return ss.path
}

// RecordJob stores a finished job, assigning an ID and timestamp when missing
func (ss *SQLiteStorage) RecordJob(ctx context.Context, job *model.PrintJob) error {
	if job == nil || job.PrinterID == "" {
		return ErrInvalidJob
	}
	if job.ID == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating UUIDv7 for job: %w", err)
		}
		job.ID = u.String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = model.JobCompleted
	}

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO print_jobs (
			id, printer_id, display_name, model, endpoint, label_size,
			threshold, rotate, status, error, bytes, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.PrinterID, job.DisplayName, job.Model, job.Endpoint, job.LabelSize,
		job.Threshold, job.Rotate, string(job.Status), job.Error, job.Bytes, job.DurationMS,
		job.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting print job: %w", err)
	}
	return nil
}

const jobColumns = `id, printer_id, display_name, model, endpoint, label_size,
	threshold, rotate, status, error, bytes, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.PrintJob, error) {
	var job model.PrintJob
	var status string
	if err := row.Scan(
		&job.ID, &job.PrinterID, &job.DisplayName, &job.Model, &job.Endpoint, &job.LabelSize,
		&job.Threshold, &job.Rotate, &status, &job.Error, &job.Bytes, &job.DurationMS, &job.CreatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	return &job, nil
}

// GetJob returns one job by ID
func (ss *SQLiteStorage) GetJob(ctx context.Context, id string) (*model.PrintJob, error) {
	job, err := scanJob(ss.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM print_jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying print job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first
func (ss *SQLiteStorage) ListJobs(ctx context.Context, filter *model.JobFilter) ([]model.PrintJob, error) {
	query := `SELECT ` + jobColumns + ` FROM print_jobs`
	var args []any

	limit := DefaultJobLimit
	if filter != nil {
		if filter.PrinterID != "" {
			query += ` WHERE printer_id = ?`
			args = append(args, filter.PrinterID)
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := ss.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying print jobs: %w", err)
	}
	defer rows.Close()

	jobs := []model.PrintJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning print job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// DeleteJobsBefore prunes history older than before
func (ss *SQLiteStorage) DeleteJobsBefore(ctx context.Context, before time.Time) (int, error) {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting print jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
