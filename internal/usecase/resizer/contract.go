package resizer

import (
	"context"
	"io"

	"image-resizer/internal/domain"
)

// Image is an open, decoded image owned by one transformation.
// Close must be called on every exit path.
type Image interface {
	Size() domain.Size
	ImageType() string
	Crop(ctx context.Context, rect domain.Rectangle) error
	Resize(ctx context.Context, size domain.Size) error
	Normalize(ctx context.Context) error
	ApplyFilter(ctx context.Context, filter domain.Filter) error
	Info(ctx context.Context) (domain.ImageInfo, error)
	WriteTo(ctx context.Context, w io.Writer, imageType string, quality int, optimize bool) error
	Close() error
}

// Provider decodes images. Malformed input yields *domain.InvalidImageError.
type Provider interface {
	Open(ctx context.Context, r io.Reader) (Image, error)
}
