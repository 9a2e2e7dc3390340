package native

import (
	"bytes"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const (
	tagOrientation = string(exif.Orientation)

	resolutionUnitCentimeter = 3
	centimetersPerInch       = 2.54
)

type metadata struct {
	orientation int
	xResolution int
	yResolution int
	tags        map[string]string
}

// readMetadata extracts EXIF data. Images without EXIF yield empty metadata.
func readMetadata(data []byte) metadata {
	meta := metadata{orientation: 1, tags: map[string]string{}}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return meta
	}

	_ = x.Walk(tagCollector(meta.tags))

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			meta.orientation = v
		}
	}

	perCentimeter := false
	if tag, err := x.Get(exif.ResolutionUnit); err == nil {
		if v, err := tag.Int(0); err == nil {
			perCentimeter = v == resolutionUnitCentimeter
		}
	}
	meta.xResolution = resolution(x, exif.XResolution, perCentimeter)
	meta.yResolution = resolution(x, exif.YResolution, perCentimeter)
	return meta
}

// resolution returns the DPI stored in a rational tag.
func resolution(x *exif.Exif, name exif.FieldName, perCentimeter bool) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	v := float64(num) / float64(den)
	if perCentimeter {
		return int(math.Round(v * centimetersPerInch))
	}
	return int(v)
}

type tagCollector map[string]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			c[string(name)] = s
			return nil
		}
	}
	c[string(name)] = tag.String()
	return nil
}
