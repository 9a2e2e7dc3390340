package job

import (
	"context"

	"image-resizer/internal/domain"

	"github.com/wb-go/wbf/retry"
)

type jobRepository interface {
	Save(ctx context.Context, j *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, contentType string, resizerErr *domain.ResizerError) error
}

type taskProducer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

type storage interface {
	Key(uri string) (string, error)
	Resolver() domain.SourceResolver
}
