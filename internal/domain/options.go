package domain

import (
	"strconv"
	"strings"
)

const (
	ModeNone  = "none"
	ModeExact = "exact"
	ModeInbox = "inbox"
)

type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) get() (T, bool) {
	return o.value, o.set
}

// ResizeOptions describes one transformation request. Values are immutable:
// build them with NewResizeOptions and read them with the accessors.
type ResizeOptions struct {
	imageType  optional[string]
	width      optional[int]
	height     optional[int]
	resizeMode optional[string]
	quality    optional[int]
	optimize   optional[bool]
	weightX    optional[int]
	weightY    optional[int]
	filters    []Filter
}

type Option func(*ResizeOptions)

func NewResizeOptions(opts ...Option) ResizeOptions {
	var o ResizeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithImageType sets the output type. An empty string keeps the input type.
func WithImageType(imageType string) Option {
	return func(o *ResizeOptions) {
		if imageType != "" {
			o.imageType = some(imageType)
		}
	}
}

func WithWidth(width int) Option {
	return func(o *ResizeOptions) { o.width = some(width) }
}

func WithHeight(height int) Option {
	return func(o *ResizeOptions) { o.height = some(height) }
}

// WithResizeMode sets the resize mode name. An empty string selects "none".
func WithResizeMode(mode string) Option {
	return func(o *ResizeOptions) {
		if mode != "" {
			o.resizeMode = some(mode)
		}
	}
}

func WithQuality(quality int) Option {
	return func(o *ResizeOptions) { o.quality = some(quality) }
}

func WithOptimize(optimize bool) Option {
	return func(o *ResizeOptions) { o.optimize = some(optimize) }
}

func WithWeightX(x int) Option {
	return func(o *ResizeOptions) { o.weightX = some(x) }
}

func WithWeightY(y int) Option {
	return func(o *ResizeOptions) { o.weightY = some(y) }
}

// WithFilters appends filters in application order.
func WithFilters(filters ...Filter) Option {
	return func(o *ResizeOptions) {
		o.filters = append(append([]Filter(nil), o.filters...), filters...)
	}
}

func (o ResizeOptions) ImageType() (string, bool) { return o.imageType.get() }
func (o ResizeOptions) Width() (int, bool)        { return o.width.get() }
func (o ResizeOptions) Height() (int, bool)       { return o.height.get() }
func (o ResizeOptions) Quality() (int, bool)      { return o.quality.get() }
func (o ResizeOptions) Optimize() (bool, bool)    { return o.optimize.get() }
func (o ResizeOptions) WeightX() (int, bool)      { return o.weightX.get() }
func (o ResizeOptions) WeightY() (int, bool)      { return o.weightY.get() }

// ResizeMode returns the requested mode, "none" when unset.
func (o ResizeOptions) ResizeMode() string {
	if mode, ok := o.resizeMode.get(); ok {
		return mode
	}
	return ModeNone
}

// Filters returns a copy of the filter list.
func (o ResizeOptions) Filters() []Filter {
	return append([]Filter(nil), o.filters...)
}

// WidthPtr and HeightPtr expose the requested dimensions in error payloads.
func (o ResizeOptions) WidthPtr() *int  { return ptr(o.width) }
func (o ResizeOptions) HeightPtr() *int { return ptr(o.height) }

func ptr[T any](o optional[T]) *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// String renders the set options, e.g. "[ImageType = jpeg, Width = 200, Height = 200]".
func (o ResizeOptions) String() string {
	var b strings.Builder
	first := true
	add := func(key, value string) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(key)
		b.WriteString(" = ")
		b.WriteString(value)
	}
	addInt := func(key string, v optional[int]) {
		if v.set {
			add(key, strconv.Itoa(v.value))
		}
	}

	b.WriteByte('[')
	if v, ok := o.imageType.get(); ok {
		add("ImageType", v)
	}
	addInt("Width", o.width)
	addInt("Height", o.height)
	if v, ok := o.resizeMode.get(); ok {
		add("ResizeMode", v)
	}
	addInt("Quality", o.quality)
	if v, ok := o.optimize.get(); ok {
		add("Optimize", strconv.FormatBool(v))
	}
	addInt("WeightX", o.weightX)
	addInt("WeightY", o.weightY)
	b.WriteByte(']')
	return b.String()
}
