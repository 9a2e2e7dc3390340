package native

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"image-resizer/internal/domain"

	"github.com/disintegration/imaging"
)

var encoders = map[string]imaging.Format{
	domain.TypeJPEG: imaging.JPEG,
	domain.TypePNG:  imaging.PNG,
	domain.TypeGIF:  imaging.GIF,
	domain.TypeTIFF: imaging.TIFF,
	domain.TypeBMP:  imaging.BMP,
}

// Image is a decoded image held in memory.
type Image struct {
	provider   *Provider
	img        image.Image
	format     string
	meta       metadata
	normalized bool
	closed     bool
}

func (i *Image) Size() domain.Size {
	b := i.img.Bounds()
	return domain.NewSize(b.Dx(), b.Dy())
}

func (i *Image) ImageType() string {
	return i.format
}

func (i *Image) Crop(ctx context.Context, rect domain.Rectangle) error {
	if err := i.usable(ctx); err != nil {
		return err
	}
	rect = rect.Clamp(i.Size())
	origin := i.img.Bounds().Min
	i.replace(imaging.Crop(i.img, image.Rect(
		origin.X+rect.X,
		origin.Y+rect.Y,
		origin.X+rect.X+rect.Width,
		origin.Y+rect.Y+rect.Height,
	)))
	return nil
}

func (i *Image) Resize(ctx context.Context, size domain.Size) error {
	if err := i.usable(ctx); err != nil {
		return err
	}
	if size.IsEmpty() {
		return &domain.InternalError{InternalCode: "invalid_size", Desc: fmt.Sprintf("Cannot resize image to %s.", size)}
	}
	if size == i.Size() {
		return nil
	}
	if err := i.provider.checkLimit(size); err != nil {
		return err
	}
	i.replace(imaging.Resize(i.img, size.Width, size.Height, i.provider.resample))
	return nil
}

// Normalize applies the EXIF orientation and then treats the image as upright.
func (i *Image) Normalize(ctx context.Context) error {
	if err := i.usable(ctx); err != nil {
		return err
	}
	if i.normalized {
		return nil
	}
	switch i.meta.orientation {
	case 2:
		i.replace(imaging.FlipH(i.img))
	case 3:
		i.replace(imaging.Rotate180(i.img))
	case 4:
		i.replace(imaging.FlipV(i.img))
	case 5:
		i.replace(imaging.Transpose(i.img))
	case 6:
		i.replace(imaging.Rotate270(i.img))
	case 7:
		i.replace(imaging.Transverse(i.img))
	case 8:
		i.replace(imaging.Rotate90(i.img))
	}
	i.normalized = true
	return nil
}

func (i *Image) Info(ctx context.Context) (domain.ImageInfo, error) {
	if err := i.usable(ctx); err != nil {
		return domain.ImageInfo{}, err
	}
	size := i.Size()
	exif := make(map[string]string, len(i.meta.tags))
	for k, v := range i.meta.tags {
		exif[k] = v
	}
	if i.normalized {
		if _, ok := exif[tagOrientation]; ok {
			exif[tagOrientation] = "0"
		}
	}
	return domain.ImageInfo{
		Width:       size.Width,
		Height:      size.Height,
		XResolution: i.meta.xResolution,
		YResolution: i.meta.yResolution,
		Iptc:        map[string]string{},
		Exif:        exif,
	}, nil
}

// WriteTo encodes the image. Metadata is never copied to the output, so
// optimize only affects the compression effort of lossless formats.
func (i *Image) WriteTo(ctx context.Context, w io.Writer, imageType string, quality int, optimize bool) error {
	if err := i.usable(ctx); err != nil {
		return err
	}
	format, ok := encoders[imageType]
	if !ok {
		return &domain.UnsupportedImageTypeError{
			ImageType: imageType,
			Desc:      fmt.Sprintf("Image type %s is not supported for output.", imageType),
		}
	}

	opts := []imaging.EncodeOption{imaging.JPEGQuality(quality)}
	if optimize && format == imaging.PNG {
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err := imaging.Encode(w, i.img, format, opts...); err != nil {
		return fmt.Errorf("failed to encode %s image: %w", imageType, err)
	}
	return nil
}

func (i *Image) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.provider.track(i.Size(), -1)
	return nil
}

func (i *Image) usable(ctx context.Context) error {
	if i.closed {
		return ErrImageClosed
	}
	return ctx.Err()
}

func (i *Image) replace(img image.Image) {
	before := i.Size()
	i.img = img
	after := i.Size()
	i.provider.pixels.Add(int64(after.Width)*int64(after.Height) - int64(before.Width)*int64(before.Height))
}
