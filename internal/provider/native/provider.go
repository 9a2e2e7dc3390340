// Package native is an image provider built on pure Go codecs.
package native

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"sync/atomic"

	"image-resizer/internal/domain"
	"image-resizer/internal/usecase/resizer"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/golang/freetype/truetype"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp"
)

const bytesPerPixel = 4

var resamplingFilters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

type Config struct {
	// MemoryLimit caps the decoded size of any single image in bytes. Zero disables the check.
	MemoryLimit int64
	// Resampling names the resize filter, lanczos when empty.
	Resampling string
}

// Usage is a snapshot of the resources held by open images.
type Usage struct {
	Images int64
	Pixels int64
}

// Provider decodes images into memory. It is safe for concurrent use; the
// memory limit is fixed at construction and shared by all requests.
type Provider struct {
	memoryLimit int64
	resample    imaging.ResampleFilter
	font        *truetype.Font
	images      atomic.Int64
	pixels      atomic.Int64
	logger      *zlog.Zerolog
}

func New(cfg Config, logger *zlog.Zerolog) (*Provider, error) {
	name := strings.ToLower(cfg.Resampling)
	if name == "" {
		name = "lanczos"
	}
	resample, ok := resamplingFilters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResampling, cfg.Resampling)
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	return &Provider{
		memoryLimit: cfg.MemoryLimit,
		resample:    resample,
		font:        f,
		logger:      logger,
	}, nil
}

func (p *Provider) Usage() Usage {
	return Usage{Images: p.images.Load(), Pixels: p.pixels.Load()}
}

func (p *Provider) Open(ctx context.Context, r io.Reader) (resizer.Image, error) {
	return p.open(ctx, r)
}

func (p *Provider) open(ctx context.Context, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.InvalidImageError{Desc: "Unable to read image header.", Err: err}
	}
	if err := p.checkLimit(domain.NewSize(cfg.Width, cfg.Height)); err != nil {
		return nil, err
	}

	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.InvalidImageError{Desc: "Unable to decode image.", Err: err}
	}

	img := &Image{
		provider: p,
		img:      decoded,
		format:   format,
		meta:     readMetadata(data),
	}
	p.track(img.Size(), 1)

	p.logger.Debug().
		Str("format", format).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("Image opened")
	return img, nil
}

func (p *Provider) checkLimit(size domain.Size) error {
	if p.memoryLimit <= 0 {
		return nil
	}
	if need := int64(size.Width) * int64(size.Height) * bytesPerPixel; need > p.memoryLimit {
		return &domain.InternalError{
			InternalCode: "memory_limit",
			Desc: fmt.Sprintf("Image of size %s requires %s which exceeds the limit of %s.",
				size, humanize.IBytes(uint64(need)), humanize.IBytes(uint64(p.memoryLimit))),
		}
	}
	return nil
}

func (p *Provider) track(size domain.Size, images int64) {
	p.images.Add(images)
	p.pixels.Add(images * int64(size.Width) * int64(size.Height))
}
