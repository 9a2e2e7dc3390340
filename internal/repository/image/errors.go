package image

import "errors"

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidLocation = errors.New("invalid location")
	ErrOutsideRoot     = errors.New("location is outside of the storage root")
	ErrStorageError    = errors.New("storage error")
)
