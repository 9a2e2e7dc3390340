package job

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid job request")
	ErrJobNotFound       = errors.New("job not found")
	ErrDatabaseError     = errors.New("database error")
	ErrMessageQueueError = errors.New("message queue error")
)
