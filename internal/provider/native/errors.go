package native

import "errors"

var (
	ErrUnknownResampling = errors.New("unknown resampling filter")
	ErrImageClosed       = errors.New("image is closed")
)
