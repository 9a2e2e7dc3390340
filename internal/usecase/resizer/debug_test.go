package resizer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"image-resizer/internal/domain"
	"image-resizer/internal/repository/image/memory"
	"image-resizer/internal/stream"

	"github.com/wb-go/wbf/zlog"
)

// debugProvider decodes the textual form "<width> <height> <type>" so that
// pipelines can be checked without real codecs.
type debugProvider struct {
	mu      sync.Mutex
	opened  int
	closed  int
	resized int
	encoded int

	onNormalize func()
}

func (p *debugProvider) Open(ctx context.Context, r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img := &debugImage{provider: p}
	if _, err := fmt.Sscanf(string(data), "%d %d %s", &img.size.Width, &img.size.Height, &img.imageType); err != nil {
		return nil, &domain.InvalidImageError{Desc: "Unable to decode image.", Err: err}
	}
	p.mu.Lock()
	p.opened++
	p.mu.Unlock()
	return img, nil
}

func (p *debugProvider) work() (resized, encoded int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resized, p.encoded
}

func (p *debugProvider) counts() (opened, closed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened, p.closed
}

type debugImage struct {
	provider  *debugProvider
	size      domain.Size
	imageType string
	ops       []string
}

func (i *debugImage) Size() domain.Size { return i.size }
func (i *debugImage) ImageType() string { return i.imageType }

func (i *debugImage) Crop(_ context.Context, rect domain.Rectangle) error {
	i.ops = append(i.ops, fmt.Sprintf("crop(%d,%d,%d,%d)", rect.X, rect.Y, rect.Width, rect.Height))
	i.size = rect.Size()
	return nil
}

func (i *debugImage) Resize(_ context.Context, size domain.Size) error {
	i.provider.mu.Lock()
	i.provider.resized++
	i.provider.mu.Unlock()
	i.ops = append(i.ops, "resize")
	i.size = size
	return nil
}

func (i *debugImage) Normalize(context.Context) error {
	if i.provider.onNormalize != nil {
		i.provider.onNormalize()
	}
	i.ops = append(i.ops, "normalize")
	return nil
}

func (i *debugImage) ApplyFilter(_ context.Context, f domain.Filter) error {
	i.ops = append(i.ops, f.String())
	return nil
}

func (i *debugImage) Info(context.Context) (domain.ImageInfo, error) {
	return domain.ImageInfo{Width: i.size.Width, Height: i.size.Height, Iptc: map[string]string{}, Exif: map[string]string{}}, nil
}

func (i *debugImage) WriteTo(_ context.Context, w io.Writer, imageType string, quality int, optimize bool) error {
	if imageType == domain.TypeWebP {
		return &domain.UnsupportedImageTypeError{ImageType: imageType, Desc: "Image type webp is not supported for output."}
	}
	i.provider.mu.Lock()
	i.provider.encoded++
	i.provider.mu.Unlock()
	_, err := fmt.Fprintf(w, "%d %d %s %d %t %s", i.size.Width, i.size.Height, imageType, quality, optimize, strings.Join(i.ops, ";"))
	return err
}

func (i *debugImage) Close() error {
	i.provider.mu.Lock()
	i.provider.closed++
	i.provider.mu.Unlock()
	return nil
}

// debugOutput is the parsed result written by debugImage.
type debugOutput struct {
	Width     int
	Height    int
	ImageType string
	Quality   int
	Optimize  bool
	Ops       []string
}

func parseDebugOutput(data []byte) (debugOutput, error) {
	var out debugOutput
	var ops string
	n, err := fmt.Sscanf(string(data), "%d %d %s %d %t %s", &out.Width, &out.Height, &out.ImageType, &out.Quality, &out.Optimize, &ops)
	if err != nil && n < 5 {
		return out, err
	}
	if ops != "" {
		out.Ops = strings.Split(ops, ";")
	}
	return out, nil
}

func debugSource(width, height int, imageType string) *memory.Source {
	return memory.NewSource([]byte(fmt.Sprintf("%d %d %s", width, height, imageType)))
}

// trackingSource records whether its producer ran.
type trackingSource struct {
	stream.Source
	mu      sync.Mutex
	started bool
}

func (s *trackingSource) CreateProducer() stream.Producer {
	inner := s.Source.CreateProducer()
	return stream.ProducerFunc(func(ctx context.Context, w io.Writer) error {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		return inner.Produce(ctx, w)
	})
}

func (s *trackingSource) wasStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func newDebugResizer(opts Options) (*ImageResizer, *debugProvider) {
	provider := &debugProvider{}
	return NewImageResizer(provider, MustCollection(), opts, &zlog.Logger), provider
}
