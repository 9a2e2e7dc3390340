package worker

import (
	"context"

	"image-resizer/internal/broker"
	"image-resizer/internal/domain"
	"image-resizer/internal/stream"

	"github.com/wb-go/wbf/retry"
)

type taskConsumer interface {
	Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *broker.Message) error
}

type resultProducer interface {
	SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

type jobRepository interface {
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, contentType string, resizerErr *domain.ResizerError) error
}

type imageResizer interface {
	TryResize(ctx context.Context, src stream.Source, dst stream.Destination, opts domain.ResizeOptions) *domain.ResizerError
}

type objectStorage interface {
	Resolver() domain.SourceResolver
	Target(uri string) (stream.Destination, error)
}
