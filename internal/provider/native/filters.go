package native

import (
	"context"
	"fmt"
	"image"
	"io"

	"image-resizer/internal/domain"
	"image-resizer/internal/stream"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

func (i *Image) ApplyFilter(ctx context.Context, filter domain.Filter) error {
	if err := i.usable(ctx); err != nil {
		return err
	}
	switch f := filter.(type) {
	case domain.Blur:
		if f.Sigma > 0 {
			i.replace(imaging.Blur(i.img, f.Sigma))
		}
		return nil
	case domain.WaterMark:
		return i.applyWaterMark(ctx, f)
	case domain.Caption:
		return i.applyCaption(f)
	default:
		return &domain.InternalError{
			InternalCode: "not_supported_filter",
			Desc:         fmt.Sprintf("Filter %s is not supported by native provider.", filter),
		}
	}
}

func (i *Image) applyWaterMark(ctx context.Context, w domain.WaterMark) error {
	if w.Source == nil {
		return &domain.InternalError{InternalCode: "invalid_filter", Desc: "Watermark source is not specified."}
	}
	mark, err := i.provider.openSource(ctx, w.Source)
	if err != nil {
		return fmt.Errorf("failed to open watermark %s: %w", stream.Describe(w.Source), err)
	}
	defer mark.Close()

	if w.X != nil && w.Y != nil {
		if err := mark.Resize(ctx, domain.NewSize(*w.X, *w.Y)); err != nil {
			return err
		}
	}

	pos, err := anchor(i.Size(), mark.Size(), w.Gravity, 0)
	if err != nil {
		return err
	}
	dst := imaging.Clone(i.img)
	area := image.Rectangle{Min: pos, Max: pos.Add(mark.img.Bounds().Size())}
	xdraw.Draw(dst, area, mark.img, mark.img.Bounds().Min, xdraw.Over)
	i.replace(dst)
	return nil
}

// openSource decodes a secondary image through its own pipeline.
func (p *Provider) openSource(ctx context.Context, src stream.Source) (*Image, error) {
	var opened *Image
	err := stream.Consume(ctx, src, stream.ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		img, err := p.open(ctx, r)
		if err != nil {
			return err
		}
		opened = img
		_, err = io.Copy(io.Discard, r)
		return err
	}))
	if err != nil {
		if opened != nil {
			opened.Close()
		}
		return nil, err
	}
	return opened, nil
}

// anchor returns the top left corner of an overlay placed by gravity,
// keeping margin pixels away from the touched edges.
func anchor(canvas, overlay domain.Size, gravity domain.Gravity, margin int) (image.Point, error) {
	left := margin
	center := (canvas.Width - overlay.Width) / 2
	right := canvas.Width - overlay.Width - margin
	top := margin
	middle := (canvas.Height - overlay.Height) / 2
	bottom := canvas.Height - overlay.Height - margin

	switch gravity {
	case domain.GravityUndefined, domain.GravityNorthwest:
		return image.Pt(left, top), nil
	case domain.GravityNorth:
		return image.Pt(center, top), nil
	case domain.GravityNortheast:
		return image.Pt(right, top), nil
	case domain.GravityWest:
		return image.Pt(left, middle), nil
	case domain.GravityCenter:
		return image.Pt(center, middle), nil
	case domain.GravityEast:
		return image.Pt(right, middle), nil
	case domain.GravitySouthwest:
		return image.Pt(left, bottom), nil
	case domain.GravitySouth:
		return image.Pt(center, bottom), nil
	case domain.GravitySoutheast:
		return image.Pt(right, bottom), nil
	default:
		return image.Point{}, &domain.InternalError{
			InternalCode: "not_supported_gravity",
			Desc:         fmt.Sprintf("Gravity %d is not supported.", int(gravity)),
		}
	}
}
