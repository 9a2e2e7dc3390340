package dto

import (
	"fmt"
	"net/url"
	"strconv"

	"image-resizer/internal/domain"
)

// ResizeQuery holds the query parameters of a resize request.
type ResizeQuery struct {
	Type     string   `validate:"omitempty,oneof=jpeg png gif bmp tiff webp pdf ico"`
	Width    *int     `validate:"omitempty,min=1"`
	Height   *int     `validate:"omitempty,min=1"`
	Mode     string
	Quality  *int     `validate:"omitempty,min=1,max=100"`
	Optimize *bool    `validate:"omitempty"`
	X        *int     `validate:"omitempty,min=0"`
	Y        *int     `validate:"omitempty,min=0"`
	Filters  []string `validate:"dive,required"`
}

func ParseResizeQuery(q url.Values) (ResizeQuery, error) {
	req := ResizeQuery{
		Type:    q.Get("type"),
		Mode:    q.Get("mode"),
		Filters: q["filter"],
	}

	var err error
	if req.Width, err = intParam(q, "width"); err != nil {
		return req, err
	}
	if req.Height, err = intParam(q, "height"); err != nil {
		return req, err
	}
	if req.Quality, err = intParam(q, "quality"); err != nil {
		return req, err
	}
	if req.X, err = intParam(q, "x"); err != nil {
		return req, err
	}
	if req.Y, err = intParam(q, "y"); err != nil {
		return req, err
	}
	if v := q.Get("optimize"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid optimize %q", v)
		}
		req.Optimize = &b
	}
	return req, nil
}

func (r ResizeQuery) Spec() domain.ResizeSpec {
	return domain.ResizeSpec{
		ImageType:  r.Type,
		Width:      r.Width,
		Height:     r.Height,
		ResizeMode: r.Mode,
		Quality:    r.Quality,
		Optimize:   r.Optimize,
		WeightX:    r.X,
		WeightY:    r.Y,
		Filters:    r.Filters,
	}
}

func intParam(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &n, nil
}
