package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "image-resizer/internal/broker/kafka"
	"image-resizer/internal/config"
	image_h "image-resizer/internal/http-server/handler/image"
	job_h "image-resizer/internal/http-server/handler/job"
	"image-resizer/internal/http-server/router"
	"image-resizer/internal/provider/native"
	minio_repo "image-resizer/internal/repository/image/cloud/minio"
	"image-resizer/internal/repository/image/filesystem"
	postgres_repo "image-resizer/internal/repository/job/postgres"
	job_uc "image-resizer/internal/usecase/job"
	"image-resizer/internal/usecase/resizer"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	provider, err := native.New(cfg.ProviderConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image provider: %w", err)
	}

	modes := resizer.MustCollection()
	imageResizer := resizer.NewImageResizer(provider, modes, cfg.ResizerOptions(), logger)

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	h := &router.Handler{
		ImageHandler: image_h.NewImageHandler(imageResizer, filesystem.Resolver(cfg.Images.StorageRoot), cfg.Server.MaxBodySize, logger),
		Modes:        modes.Names(),
	}

	if cfg.Server.EnableJobs {
		jobHandler, err := a.setupJobs(cfg, logger)
		if err != nil {
			return nil, err
		}
		h.JobHandler = jobHandler
	}

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *App) setupJobs(cfg *config.Config, logger *zlog.Zerolog) (*job_h.JobHandler, error) {
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
	a.db = db

	fileRepo, err := minio_repo.NewMinIORepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	jobRepo := postgres_repo.NewJobsRepository(db, retries)
	a.producer = kafka_impl.NewProducerClient(cfg)

	jobUsecase := job_uc.NewJobUsecase(jobRepo, fileRepo, a.producer, logger, retries)
	return job_h.NewJobHandler(jobUsecase, logger), nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Bool("jobs", a.cfg.Server.EnableJobs).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to close producer")
			}
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
