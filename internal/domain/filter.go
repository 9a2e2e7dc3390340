package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"image-resizer/internal/stream"
)

var (
	ErrUnknownFilter   = errors.New("unknown filter")
	ErrMalformedFilter = errors.New("malformed filter")
)

// Filter is a post-resize operation. The set of filters is closed.
type Filter interface {
	fmt.Stringer
	isFilter()
}

type Blur struct {
	Sigma float64
}

func (Blur) isFilter() {}

func (b Blur) String() string {
	return fmt.Sprintf("blur(%.2f)", b.Sigma)
}

type Gravity int

const (
	GravityUndefined Gravity = iota
	GravityNorthwest
	GravityNorth
	GravityNortheast
	GravityWest
	GravityCenter
	GravityEast
	GravitySouthwest
	GravitySouth
	GravitySoutheast
)

// GravityForget is an alias of GravityUndefined.
const GravityForget = GravityUndefined

var gravityNames = [...]string{"undefined", "northwest", "north", "northeast", "west", "center", "east", "southwest", "south", "southeast"}

func (g Gravity) String() string {
	if g < 0 || int(g) >= len(gravityNames) {
		return strconv.Itoa(int(g))
	}
	return gravityNames[g]
}

// ParseGravity accepts both the numeric and the named form.
func ParseGravity(s string) (Gravity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(gravityNames) {
			return 0, fmt.Errorf("%w: gravity %d out of range", ErrMalformedFilter, n)
		}
		return Gravity(n), nil
	}
	if s == "forget" {
		return GravityForget, nil
	}
	for i, name := range gravityNames {
		if name == s {
			return Gravity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown gravity %q", ErrMalformedFilter, s)
}

// WaterMark overlays another image. When both X and Y are set the overlay is
// resized to X by Y before it is composited; a lone X or Y is ignored.
type WaterMark struct {
	Source  stream.Source
	Gravity Gravity
	X       *int
	Y       *int
}

func NewWaterMark(source stream.Source) WaterMark {
	return WaterMark{Source: source, Gravity: GravityNortheast}
}

func (WaterMark) isFilter() {}

func (w WaterMark) String() string {
	x, y := 0, 0
	if w.X != nil && w.Y != nil {
		x, y = *w.X, *w.Y
	}
	return fmt.Sprintf("watermark(%s,%d,%d,%d)", stream.Describe(w.Source), int(w.Gravity), x, y)
}

// Caption renders a line of text onto the image.
type Caption struct {
	Text    string
	Gravity Gravity
	Size    float64
}

func (Caption) isFilter() {}

func (c Caption) String() string {
	return fmt.Sprintf("caption(%s,%d,%.2f)", c.Text, int(c.Gravity), c.Size)
}

// SourceResolver maps a resource URI to a readable source.
type SourceResolver func(uri string) (stream.Source, error)

// ParseFilter reads the textual form produced by Filter.String.
func ParseFilter(s string, resolve SourceResolver) (Filter, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedFilter, s)
	}
	name := strings.ToLower(s[:open])
	args := strings.Split(s[open+1:len(s)-1], ",")

	switch name {
	case "blur":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: blur takes one argument", ErrMalformedFilter)
		}
		sigma, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
		if err != nil || sigma < 0 {
			return nil, fmt.Errorf("%w: invalid sigma %q", ErrMalformedFilter, args[0])
		}
		return Blur{Sigma: sigma}, nil
	case "watermark":
		return parseWaterMark(args, resolve)
	case "caption":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: caption takes text, gravity and size", ErrMalformedFilter)
		}
		n := len(args)
		gravity, err := ParseGravity(args[n-2])
		if err != nil {
			return nil, err
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(args[n-1]), 64)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("%w: invalid caption size %q", ErrMalformedFilter, args[n-1])
		}
		return Caption{Text: strings.Join(args[:n-2], ","), Gravity: gravity, Size: size}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
}

// parseWaterMark splits arguments from the right so that the URI may contain commas.
func parseWaterMark(args []string, resolve SourceResolver) (Filter, error) {
	if resolve == nil {
		return nil, fmt.Errorf("%w: watermark sources cannot be resolved here", ErrMalformedFilter)
	}
	n := len(args)
	var (
		uriParts = args
		gravity  = GravityNortheast
		x, y     *int
	)
	if n >= 4 {
		xv, errX := strconv.Atoi(strings.TrimSpace(args[n-2]))
		yv, errY := strconv.Atoi(strings.TrimSpace(args[n-1]))
		if g, errG := ParseGravity(args[n-3]); errX == nil && errY == nil && errG == nil {
			gravity, uriParts = g, args[:n-3]
			if xv != 0 && yv != 0 {
				x, y = &xv, &yv
			}
		}
	}
	if len(uriParts) == n && n >= 2 {
		if g, err := ParseGravity(args[n-1]); err == nil {
			gravity, uriParts = g, args[:n-1]
		}
	}
	uri := strings.TrimSpace(strings.Join(uriParts, ","))
	if uri == "" {
		return nil, fmt.Errorf("%w: watermark source is required", ErrMalformedFilter)
	}
	src, err := resolve(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watermark source %q: %w", uri, err)
	}
	return WaterMark{Source: src, Gravity: gravity, X: x, Y: y}, nil
}
