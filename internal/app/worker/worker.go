package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "image-resizer/internal/broker/kafka"
	"image-resizer/internal/config"
	"image-resizer/internal/provider/native"
	minio_repo "image-resizer/internal/repository/image/cloud/minio"
	postgres_repo "image-resizer/internal/repository/job/postgres"
	"image-resizer/internal/usecase/resizer"
	"image-resizer/internal/worker"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type Worker struct {
	cfg      *config.Config
	logger   *zlog.Zerolog
	db       *dbpg.DB
	consumer *kafka_impl.ConsumerClient
	producer *kafka_impl.ProducerClient
	fileRepo *minio_repo.FileRepository
	pool     *worker.Worker
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	retries := cfg.DefaultRetryStrategy()
	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}
	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewMinIORepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	provider, err := native.New(cfg.ProviderConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image provider: %w", err)
	}
	imageResizer := resizer.NewImageResizer(provider, resizer.MustCollection(), cfg.ResizerOptions(), logger)

	jobRepo := postgres_repo.NewJobsRepository(db, retries)
	consumer := kafka_impl.NewConsumerClient(cfg)
	producer := kafka_impl.NewProducerClient(cfg)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.JobsTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	pool := worker.NewWorker(consumer, producer, jobRepo, imageResizer, fileRepo, retries, cfg.Worker.Concurrency, logger)

	return &Worker{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		consumer: consumer,
		producer: producer,
		fileRepo: fileRepo,
		pool:     pool,
	}, nil
}

func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		w.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping worker...")
		cancel()
	}()

	if err := w.fileRepo.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to prepare bucket: %w", err)
	}

	w.pool.Run(ctx)

	w.logger.Info().Msg("Shutting down worker gracefully...")
	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}
	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close consumer")
	}
	if err := w.producer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close producer")
	}
	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}
