package dto

import (
	"time"

	"image-resizer/internal/domain"
)

type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type JobResponse struct {
	ID          string               `json:"id"`
	Source      string               `json:"source"`
	Destination string               `json:"destination"`
	Status      string               `json:"status"`
	ContentType string               `json:"contentType,omitempty"`
	Error       *domain.ResizerError `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
