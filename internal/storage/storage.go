package storage

import (
	"context"
	"errors"
	"time"

	"github.com/martinsuchenak/labeld/internal/model"
)

var (
	ErrJobNotFound = errors.New("print job not found")
	ErrInvalidJob  = errors.New("invalid print job")
)

// DefaultJobLimit caps ListJobs when the filter sets no limit
const DefaultJobLimit = 50

// JobStorage records the history of dispatched prints
type JobStorage interface {
	RecordJob(ctx context.Context, job *model.PrintJob) error
	GetJob(ctx context.Context, id string) (*model.PrintJob, error)
	ListJobs(ctx context.Context, filter *model.JobFilter) ([]model.PrintJob, error)
	DeleteJobsBefore(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// NewStorage opens the SQLite job history in dataDir
func NewStorage(dataDir string) (JobStorage, error) {
	return NewSQLiteStorage(dataDir)
}
