package dto

import "image-resizer/internal/domain"

type SubmitRequest struct {
	Source      string            `json:"source" validate:"required"`
	Destination string            `json:"destination" validate:"required"`
	Options     domain.ResizeSpec `json:"options"`
}
