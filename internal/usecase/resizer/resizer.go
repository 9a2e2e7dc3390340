package resizer

import (
	"context"
	"fmt"
	"io"

	"image-resizer/internal/domain"
	"image-resizer/internal/stream"

	"github.com/wb-go/wbf/zlog"
)

type ImageResizer struct {
	provider Provider
	modes    *Collection
	opts     Options
	logger   *zlog.Zerolog
}

func NewImageResizer(provider Provider, modes *Collection, opts Options, logger *zlog.Zerolog) *ImageResizer {
	return &ImageResizer{
		provider: provider,
		modes:    modes,
		opts:     opts,
		logger:   logger,
	}
}

// Resize transforms the image read from src and writes it to dst. The
// destination is created once the first encoded byte is ready, with the
// media type of the decided output type.
func (r *ImageResizer) Resize(ctx context.Context, src stream.Source, dst stream.Destination, opts domain.ResizeOptions) error {
	r.logger.Debug().Str("options", opts.String()).Msg("Creating transformation")

	factory, err := r.lookup(opts)
	if err != nil {
		return err
	}

	return r.run(ctx, src, dst, func(ctx context.Context, in io.Reader, out io.Writer, decided *stream.Decision[stream.ContentInfo]) error {
		return r.transform(ctx, in, out, factory, opts, decided)
	})
}

type decidingTransform func(ctx context.Context, in io.Reader, out io.Writer, decided *stream.Decision[stream.ContentInfo]) error

// run pipes src through transform into dst. The destination falls back to
// the generic binary media type when transform never resolves one.
func (r *ImageResizer) run(ctx context.Context, src stream.Source, dst stream.Destination, transform decidingTransform) error {
	var decided stream.Decision[stream.ContentInfo]

	consumer := stream.Delay(func(ctx context.Context) (stream.Consumer, error) {
		info, ok := decided.Value()
		if !ok {
			info = stream.ContentInfo{Type: stream.DefaultContentType}
		}
		r.logger.Debug().Str("content_type", info.Type).Msg("Initializing image destination")
		return dst.CreateConsumer(info)
	})

	return stream.Pipe(ctx, stream.Chain(src.CreateProducer(), stream.TransformationFunc(func(ctx context.Context, in io.Reader, out io.Writer) error {
		return transform(ctx, in, out, &decided)
	})), consumer)
}

// TryResize is Resize returning a flat error value. Errors outside the image
// domain are reported as generic errors.
func (r *ImageResizer) TryResize(ctx context.Context, src stream.Source, dst stream.Destination, opts domain.ResizeOptions) *domain.ResizerError {
	return domain.ToResizerError(r.Resize(ctx, src, dst, opts))
}

// Analyze reports the metadata of the image read from src.
func (r *ImageResizer) Analyze(ctx context.Context, src stream.Source) (domain.ImageInfo, error) {
	var info domain.ImageInfo
	err := stream.Consume(ctx, src, stream.ConsumerFunc(func(ctx context.Context, in io.Reader) error {
		img, err := r.provider.Open(ctx, in)
		if err != nil {
			return err
		}
		defer img.Close()

		if info, err = img.Info(ctx); err != nil {
			return err
		}
		_, err = io.Copy(io.Discard, in)
		return err
	}))
	if err != nil {
		return domain.ImageInfo{}, err
	}
	return info, nil
}

func (r *ImageResizer) lookup(opts domain.ResizeOptions) (Factory, error) {
	mode := opts.ResizeMode()
	factory, ok := r.modes.Lookup(mode)
	if !ok {
		return nil, &domain.UnsupportedResizeModeError{
			Mode:   mode,
			Width:  opts.WidthPtr(),
			Height: opts.HeightPtr(),
			Desc:   "Specified resize mode is not supported.",
		}
	}
	if v, ok := factory.(Validator); ok {
		if err := v.Validate(opts); err != nil {
			return nil, err
		}
	}
	return factory, nil
}

func (r *ImageResizer) transform(ctx context.Context, in io.Reader, out io.Writer, factory Factory, opts domain.ResizeOptions, decided *stream.Decision[stream.ContentInfo]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := r.provider.Open(ctx, in)
	if err != nil {
		return err
	}
	defer img.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := img.Normalize(ctx); err != nil {
		return fmt.Errorf("failed to normalize image: %w", err)
	}

	imageType, explicit := opts.ImageType()
	if !explicit {
		imageType = img.ImageType()
	}
	quality, ok := opts.Quality()
	if !ok {
		quality = r.opts.DecideQuality(imageType)
	}
	optimize, ok := opts.Optimize()
	if !ok {
		optimize = r.opts.DecideOptimize(imageType)
	}

	r.logger.Debug().
		Str("image_type", imageType).
		Bool("explicit", explicit).
		Int("quality", quality).
		Bool("optimize", optimize).
		Msg("Resizing image with computed options")

	decided.Resolve(stream.ContentInfo{Type: domain.ToMediaType(imageType)})

	if err := ctx.Err(); err != nil {
		return err
	}
	plan, err := factory.CreatePlan(img, opts)
	if err != nil {
		return err
	}
	if err := plan.Apply(ctx, img); err != nil {
		return err
	}

	for _, filter := range opts.Filters() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := img.ApplyFilter(ctx, filter); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return img.WriteTo(ctx, out, imageType, quality, optimize)
}
