package job

import (
	"context"

	"image-resizer/internal/domain"
	job_uc "image-resizer/internal/usecase/job"
)

type jobUsecase interface {
	Submit(ctx context.Context, req job_uc.Request) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
}
