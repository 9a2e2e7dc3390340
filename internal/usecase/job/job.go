package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"image-resizer/internal/domain"
	repoJob "image-resizer/internal/repository/job"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Request asks for the object at Source to be resized into Destination.
type Request struct {
	Source      string
	Destination string
	Spec        domain.ResizeSpec
}

type JobUsecase struct {
	repo     jobRepository
	storage  storage
	producer taskProducer
	logger   *zlog.Zerolog
	retries  retry.Strategy
}

func NewJobUsecase(repo jobRepository, storage storage, producer taskProducer, logger *zlog.Zerolog, retries retry.Strategy) *JobUsecase {
	return &JobUsecase{
		repo:     repo,
		storage:  storage,
		producer: producer,
		logger:   logger,
		retries:  retries,
	}
}

// Submit stores a queued job and publishes its task. When publishing fails
// the job is marked failed.
func (u *JobUsecase) Submit(ctx context.Context, req Request) (*domain.Job, error) {
	task, err := u.task(req)
	if err != nil {
		return nil, err
	}

	options, err := json.Marshal(req.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	now := time.Now()
	j := &domain.Job{
		ID:          task.ID,
		Source:      task.Source,
		Destination: task.Destination,
		Options:     string(options),
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.repo.Save(ctx, j); err != nil {
		u.logger.Error().Err(err).Str("job_id", j.ID).Msg("Failed to save job")
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}

	if err := u.producer.SendTask(ctx, u.retries, []byte(task.ID), payload); err != nil {
		u.logger.Error().Err(err).Str("job_id", j.ID).Msg("Failed to send task to Kafka")
		j.Status = domain.JobFailed
		j.Error = domain.ToResizerError(err)
		if updateErr := u.repo.UpdateStatus(ctx, j.ID, j.Status, "", j.Error); updateErr != nil {
			u.logger.Error().Err(updateErr).Str("job_id", j.ID).Msg("Failed to update status")
		}
		return nil, fmt.Errorf("%w: %v", ErrMessageQueueError, err)
	}

	u.logger.Info().
		Str("job_id", j.ID).
		Str("source", j.Source).
		Str("destination", j.Destination).
		Msg("Job queued")
	return j, nil
}

func (u *JobUsecase) Get(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrJobNotFound
	}
	j, err := u.repo.GetByID(ctx, id)
	if errors.Is(err, repoJob.ErrJobNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return j, nil
}

func (u *JobUsecase) task(req Request) (*domain.ResizeTask, error) {
	src, err := u.storage.Key(req.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: source: %v", ErrInvalidRequest, err)
	}
	dst, err := u.storage.Key(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("%w: destination: %v", ErrInvalidRequest, err)
	}
	if _, err := req.Spec.Options(u.storage.Resolver()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &domain.ResizeTask{
		ID:          uuid.New().String(),
		Source:      src,
		Destination: dst,
		Spec:        req.Spec,
	}, nil
}
