package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"image-resizer/internal/domain"
	"image-resizer/internal/repository/job"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type JobsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewJobsRepository(db *dbpg.DB, retries retry.Strategy) *JobsRepository {
	return &JobsRepository{
		db:      db,
		retries: retries,
	}
}

func (r *JobsRepository) Save(ctx context.Context, j *domain.Job) error {
	query := `
		INSERT INTO resize_jobs (
			id, source, destination, options, status,
			content_type, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	errJSON, err := encodeError(j.Error)
	if err != nil {
		return err
	}

	_, err = r.db.ExecWithRetry(ctx, r.retries, query,
		j.ID,
		j.Source,
		j.Destination,
		j.Options,
		j.Status,
		j.ContentType,
		errJSON,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

func (r *JobsRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, source, destination, options, status,
		       content_type, error, created_at, updated_at
		FROM resize_jobs
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}

	var (
		j       domain.Job
		errJSON []byte
	)
	err = row.Scan(
		&j.ID,
		&j.Source,
		&j.Destination,
		&j.Options,
		&j.Status,
		&j.ContentType,
		&errJSON,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, job.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	if len(errJSON) > 0 {
		var resizerErr domain.ResizerError
		if err := json.Unmarshal(errJSON, &resizerErr); err != nil {
			return nil, fmt.Errorf("failed to decode job error: %w", err)
		}
		j.Error = &resizerErr
	}

	return &j, nil
}

// UpdateStatus stores the new status. contentType is kept when empty and
// resizerErr replaces the stored error.
func (r *JobsRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, contentType string, resizerErr *domain.ResizerError) error {
	query := `
		UPDATE resize_jobs
		SET status = $1,
		    content_type = COALESCE(NULLIF($2, ''), content_type),
		    error = $3,
		    updated_at = $4
		WHERE id = $5
	`

	errJSON, err := encodeError(resizerErr)
	if err != nil {
		return err
	}

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, contentType, errJSON, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return job.ErrJobNotFound
	}

	return nil
}

// encodeError returns nil for SQL NULL or the JSON text of e.
func encodeError(e *domain.ResizerError) (any, error) {
	if e == nil {
		return nil, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job error: %w", err)
	}
	return string(data), nil
}
