package resizer

import (
	"context"

	"image-resizer/internal/domain"
)

// Plan mutates an open image once.
type Plan interface {
	Apply(ctx context.Context, img Image) error
}

// Factory builds a plan for an image in a named resize mode.
type Factory interface {
	Name() string
	CreatePlan(img Image, opts domain.ResizeOptions) (Plan, error)
}

// Validator is implemented by factories which can reject options before the
// source image is read.
type Validator interface {
	Validate(opts domain.ResizeOptions) error
}

type NonePlan struct{}

func (NonePlan) Apply(context.Context, Image) error { return nil }

type ExactPlan struct {
	Size domain.Size
}

func (p ExactPlan) Apply(ctx context.Context, img Image) error {
	return img.Resize(ctx, p.Size)
}

// InboxPlan crops to Rect, then scales to Box.
type InboxPlan struct {
	Rect domain.Rectangle
	Box  domain.Size
}

func (p InboxPlan) Apply(ctx context.Context, img Image) error {
	if err := img.Crop(ctx, p.Rect); err != nil {
		return err
	}
	// resize must follow a completed crop, so it ignores cancellation
	return img.Resize(context.WithoutCancel(ctx), p.Box)
}

type NoneFactory struct{}

func (NoneFactory) Name() string { return domain.ModeNone }

func (NoneFactory) CreatePlan(Image, domain.ResizeOptions) (Plan, error) {
	return NonePlan{}, nil
}

type ExactFactory struct{}

func (ExactFactory) Name() string { return domain.ModeExact }

func (ExactFactory) Validate(opts domain.ResizeOptions) error {
	width, hasWidth := opts.Width()
	height, hasHeight := opts.Height()
	if (hasWidth || hasHeight) && (!hasWidth || width > 0) && (!hasHeight || height > 0) {
		return nil
	}
	return &domain.UnsupportedResizeModeError{
		Mode:   domain.ModeExact,
		Width:  opts.WidthPtr(),
		Height: opts.HeightPtr(),
		Desc:   "Output image dimensions must be specified when using exact resizing.",
	}
}

func (f ExactFactory) CreatePlan(img Image, opts domain.ResizeOptions) (Plan, error) {
	if err := f.Validate(opts); err != nil {
		return nil, err
	}
	width, hasWidth := opts.Width()
	height, hasHeight := opts.Height()
	source := img.Size()

	switch {
	case hasWidth && hasHeight:
		return ExactPlan{Size: domain.NewSize(width, height)}, nil
	case hasWidth:
		if source.Width == 0 {
			return ExactPlan{Size: domain.NewSize(width, source.Height)}, nil
		}
		return ExactPlan{Size: domain.NewSize(width, max(width*source.Height/source.Width, 1))}, nil
	default:
		if source.Height == 0 {
			return ExactPlan{Size: domain.NewSize(source.Width, height)}, nil
		}
		return ExactPlan{Size: domain.NewSize(max(height*source.Width/source.Height, 1), height)}, nil
	}
}

type InboxFactory struct{}

func (InboxFactory) Name() string { return domain.ModeInbox }

func (InboxFactory) Validate(opts domain.ResizeOptions) error {
	width, hasWidth := opts.Width()
	height, hasHeight := opts.Height()
	if !hasWidth || !hasHeight || width <= 0 || height <= 0 {
		return &domain.UnsupportedResizeModeError{
			Mode:   domain.ModeInbox,
			Width:  opts.WidthPtr(),
			Height: opts.HeightPtr(),
			Desc:   "Exact image dimensions must be specified when using inbox resizing.",
		}
	}
	return nil
}

func (f InboxFactory) CreatePlan(img Image, opts domain.ResizeOptions) (Plan, error) {
	if err := f.Validate(opts); err != nil {
		return nil, err
	}
	width, _ := opts.Width()
	height, _ := opts.Height()
	box := domain.NewSize(width, height)
	weightX, hasX := opts.WeightX()
	weightY, hasY := opts.WeightY()
	return InboxPlan{
		Rect: InboxRect(img.Size(), box, weight(weightX, hasX), weight(weightY, hasY)),
		Box:  box,
	}, nil
}

func weight(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}

// InboxRect computes the crop window with the aspect ratio of box. The axis
// with the smaller source/box ratio is kept whole; ties keep the width.
// The window is centered on the other axis unless a weight shifts it.
func InboxRect(source, box domain.Size, weightX, weightY *int) domain.Rectangle {
	boxW, boxH := float64(box.Width), float64(box.Height)
	srcW, srcH := float64(source.Width), float64(source.Height)

	var rect domain.Rectangle
	if srcW/boxW <= srcH/boxH {
		extent := max(int(boxH/boxW*srcW), 1)
		rect = domain.NewRectangle(0, shift((source.Height-extent)/2, weightY, srcH), source.Width, extent)
	} else {
		extent := max(int(boxW/boxH*srcH), 1)
		rect = domain.NewRectangle(shift((source.Width-extent)/2, weightX, srcW), 0, extent, source.Height)
	}
	return rect.Clamp(source)
}

// shift scales a centered margin by 1+n where n in [-1,1] is the weight
// offset from the middle of the axis.
func shift(margin int, weight *int, length float64) int {
	if weight == nil || length == 0 {
		return margin
	}
	half := length / 2
	normalized := (float64(*weight) - half) / half
	return int(float64(margin) * (1 + normalized))
}
