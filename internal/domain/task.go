package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is an asynchronous resize of one stored object into another.
type Job struct {
	ID          string
	Source      string
	Destination string
	Options     string
	Status      JobStatus
	ContentType string
	Error       *ResizerError
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResizeSpec is the wire form of ResizeOptions. Filters use their textual form.
type ResizeSpec struct {
	ImageType  string   `json:"imageType,omitempty"`
	Width      *int     `json:"width,omitempty" validate:"omitempty,min=1"`
	Height     *int     `json:"height,omitempty" validate:"omitempty,min=1"`
	ResizeMode string   `json:"resizeMode,omitempty"`
	Quality    *int     `json:"quality,omitempty" validate:"omitempty,min=1,max=100"`
	Optimize   *bool    `json:"optimize,omitempty"`
	WeightX    *int     `json:"weightX,omitempty" validate:"omitempty,min=0"`
	WeightY    *int     `json:"weightY,omitempty" validate:"omitempty,min=0"`
	Filters    []string `json:"filters,omitempty"`
}

// Options converts s to ResizeOptions, resolving watermark sources with resolve.
func (s ResizeSpec) Options(resolve SourceResolver) (ResizeOptions, error) {
	opts := []Option{WithImageType(s.ImageType), WithResizeMode(s.ResizeMode)}
	if s.Width != nil {
		opts = append(opts, WithWidth(*s.Width))
	}
	if s.Height != nil {
		opts = append(opts, WithHeight(*s.Height))
	}
	if s.Quality != nil {
		opts = append(opts, WithQuality(*s.Quality))
	}
	if s.Optimize != nil {
		opts = append(opts, WithOptimize(*s.Optimize))
	}
	if s.WeightX != nil {
		opts = append(opts, WithWeightX(*s.WeightX))
	}
	if s.WeightY != nil {
		opts = append(opts, WithWeightY(*s.WeightY))
	}
	for _, raw := range s.Filters {
		f, err := ParseFilter(raw, resolve)
		if err != nil {
			return ResizeOptions{}, err
		}
		opts = append(opts, WithFilters(f))
	}
	return NewResizeOptions(opts...), nil
}

// ResizeTask is published for every submitted job.
type ResizeTask struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Spec        ResizeSpec `json:"spec"`
}

// ResizeResult is published once a task has been handled.
type ResizeResult struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	ContentType string        `json:"contentType,omitempty"`
	Error       *ResizerError `json:"error,omitempty"`
}

const (
	KafkaTopicJobs    = "image-resize-jobs"
	KafkaTopicResults = "image-resize-results"
	KafkaGroupID      = "image-resizer-group"
)

const DefaultMaxBodySize = 32 << 20
