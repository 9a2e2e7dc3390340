package dto

import "image-resizer/internal/domain"

type ErrorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Details string               `json:"details,omitempty"`
	Resizer *domain.ResizerError `json:"resizer,omitempty"`
}

type HealthResponse struct {
	Status string   `json:"status"`
	Modes  []string `json:"modes,omitempty"`
}
