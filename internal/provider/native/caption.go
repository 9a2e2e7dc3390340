package native

import (
	"fmt"
	"image"
	"image/color"

	"image-resizer/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const captionDPI = 72

// captionColor is white at half opacity.
var captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 128}

func (i *Image) applyCaption(c domain.Caption) error {
	if c.Text == "" || c.Size <= 0 {
		return &domain.InternalError{InternalCode: "invalid_filter", Desc: fmt.Sprintf("Invalid caption %s.", c)}
	}

	face := truetype.NewFace(i.provider.font, &truetype.Options{Size: c.Size, DPI: captionDPI, Hinting: font.HintingFull})
	defer face.Close()

	metrics := face.Metrics()
	text := domain.NewSize(font.MeasureString(face, c.Text).Ceil(), (metrics.Ascent + metrics.Descent).Ceil())
	margin := int(c.Size / 2)

	pos, err := anchor(i.Size(), text, c.Gravity, margin)
	if err != nil {
		return err
	}

	dst := imaging.Clone(i.img)
	fc := freetype.NewContext()
	fc.SetDPI(captionDPI)
	fc.SetFont(i.provider.font)
	fc.SetFontSize(c.Size)
	fc.SetClip(dst.Bounds())
	fc.SetDst(dst)
	fc.SetSrc(image.NewUniform(captionColor))
	fc.SetHinting(font.HintingFull)

	// freetype draws from the baseline
	baseline := freetype.Pt(pos.X, pos.Y+metrics.Ascent.Ceil())
	if _, err := fc.DrawString(c.Text, baseline); err != nil {
		return fmt.Errorf("failed to draw caption: %w", err)
	}
	i.replace(dst)
	return nil
}
