package main

import (
	"image-resizer/internal/app/worker"
	"image-resizer/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	resizeWorker, err := worker.NewWorker(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create resize worker")
	}

	if err := resizeWorker.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Resize worker failed")
	}

	zlog.Logger.Info().Msg("Resize worker stopped")
}
