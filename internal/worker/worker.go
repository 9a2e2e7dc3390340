package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"image-resizer/internal/broker"
	"image-resizer/internal/domain"
	"image-resizer/internal/stream"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Worker runs resize tasks read from the broker on a fixed pool of goroutines.
type Worker struct {
	consumer    taskConsumer
	producer    resultProducer
	jobs        jobRepository
	resizer     imageResizer
	storage     objectStorage
	retries     retry.Strategy
	concurrency int
	logger      *zlog.Zerolog
	wg          sync.WaitGroup
}

func NewWorker(
	consumer taskConsumer,
	producer resultProducer,
	jobs jobRepository,
	resizer imageResizer,
	storage objectStorage,
	retries retry.Strategy,
	concurrency int,
	logger *zlog.Zerolog,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		consumer:    consumer,
		producer:    producer,
		jobs:        jobs,
		resizer:     resizer,
		storage:     storage,
		retries:     retries,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run blocks until ctx is done and every in-flight task has finished.
func (w *Worker) Run(ctx context.Context) {
	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.retries)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Worker started successfully")

	<-ctx.Done()
	w.wg.Wait()
	w.logger.Info().Msg("Worker pool stopped")
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	w.logger.Debug().Int("worker_id", id).Msg("Worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			w.handle(ctx, id, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, id int, msg *broker.Message) {
	startTime := time.Now()
	if err := w.safeProcessMessage(ctx, id, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int("worker_id", id).
			Int64("offset", msg.Offset).
			Msg("Failed to process message")
		return
	}
	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Int("worker_id", id).
			Msg("Failed to commit message after successful processing")
		return
	}
	w.logger.Debug().
		Int("worker_id", id).
		Int64("offset", msg.Offset).
		Dur("duration", time.Since(startTime)).
		Msg("Message processed and committed successfully")
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

// processMessage returns an error only when the message should be
// delivered again. Failed resizes are recorded on the job instead.
func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var task domain.ResizeTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Str("message", string(msg.Value)).Int64("offset", msg.Offset).Msg("Failed to unmarshal task, skipping")
		return nil
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("source", task.Source).
		Str("destination", task.Destination).
		Int64("offset", msg.Offset).
		Msg("Processing task started")

	if err := w.jobs.UpdateStatus(ctx, task.ID, domain.JobProcessing, "", nil); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	result := w.resize(ctx, task)

	if err := w.jobs.UpdateStatus(ctx, task.ID, result.Status, result.ContentType, result.Error); err != nil {
		return fmt.Errorf("failed to store job result: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := w.producer.SendResult(ctx, w.retries, []byte(task.ID), payload); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to send result")
	}

	if result.Error != nil {
		w.logger.Error().
			Str("task_id", task.ID).
			Str("code", result.Error.Code).
			Str("error", result.Error.Description).
			Msg("Image resize failed")
	} else {
		w.logger.Info().
			Str("task_id", task.ID).
			Str("content_type", result.ContentType).
			Msg("Image resize completed successfully")
	}
	return nil
}

func (w *Worker) resize(ctx context.Context, task domain.ResizeTask) *domain.ResizeResult {
	failed := func(err error) *domain.ResizeResult {
		return &domain.ResizeResult{ID: task.ID, Status: domain.JobFailed, Error: domain.ToResizerError(err)}
	}

	resolve := w.storage.Resolver()
	src, err := resolve(task.Source)
	if err != nil {
		return failed(err)
	}
	target, err := w.storage.Target(task.Destination)
	if err != nil {
		return failed(err)
	}
	opts, err := task.Spec.Options(resolve)
	if err != nil {
		return failed(err)
	}

	dst := &recordingDestination{Destination: target}
	if resizerErr := w.resizer.TryResize(ctx, src, dst, opts); resizerErr != nil {
		return &domain.ResizeResult{ID: task.ID, Status: domain.JobFailed, Error: resizerErr}
	}
	return &domain.ResizeResult{ID: task.ID, Status: domain.JobCompleted, ContentType: dst.contentType()}
}

// recordingDestination remembers the content type handed to the wrapped destination.
type recordingDestination struct {
	stream.Destination
	mu   sync.Mutex
	info stream.ContentInfo
}

func (d *recordingDestination) CreateConsumer(info stream.ContentInfo) (stream.Consumer, error) {
	d.mu.Lock()
	d.info = info
	d.mu.Unlock()
	return d.Destination.CreateConsumer(info)
}

func (d *recordingDestination) contentType() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info.Type
}
