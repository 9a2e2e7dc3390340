package image

import (
	"context"

	"image-resizer/internal/domain"
	"image-resizer/internal/stream"
)

type imageResizer interface {
	Resize(ctx context.Context, src stream.Source, dst stream.Destination, opts domain.ResizeOptions) error
	Analyze(ctx context.Context, src stream.Source) (domain.ImageInfo, error)
}
