package resizer

import "errors"

var (
	ErrDuplicateResizeMode = errors.New("resize mode already registered")
	ErrInvalidFactory      = errors.New("invalid resizer factory")
)
