package domain

import (
	"errors"
	"fmt"
)

const (
	CodeUnsupportedResizeMode = "unsupported_resize_mode"
	CodeUnsupportedImageType  = "unsupported_image_type"
	CodeInvalidImage          = "invalid_image"
	CodeInternalError         = "internal_error"
	CodeGenericError          = "generic_error"
)

// Error is implemented by every image processing failure.
type Error interface {
	error
	Code() string
	Description() string
}

func describe(desc string, cause error) string {
	if cause == nil {
		return desc
	}
	return fmt.Sprintf("%s: %v", desc, cause)
}

type InvalidImageError struct {
	Desc string
	Err  error
}

func (e *InvalidImageError) Error() string       { return describe(e.Desc, e.Err) }
func (e *InvalidImageError) Code() string        { return CodeInvalidImage }
func (e *InvalidImageError) Description() string { return e.Desc }
func (e *InvalidImageError) Unwrap() error       { return e.Err }

type UnsupportedImageTypeError struct {
	ImageType string
	Desc      string
	Err       error
}

func (e *UnsupportedImageTypeError) Error() string       { return describe(e.Desc, e.Err) }
func (e *UnsupportedImageTypeError) Code() string        { return CodeUnsupportedImageType }
func (e *UnsupportedImageTypeError) Description() string { return e.Desc }
func (e *UnsupportedImageTypeError) Unwrap() error       { return e.Err }

type UnsupportedResizeModeError struct {
	Mode   string
	Width  *int
	Height *int
	Desc   string
}

func (e *UnsupportedResizeModeError) Error() string       { return e.Desc }
func (e *UnsupportedResizeModeError) Code() string        { return CodeUnsupportedResizeMode }
func (e *UnsupportedResizeModeError) Description() string { return e.Desc }

// InternalError wraps an engine specific failure. InternalCode identifies it
// within the engine.
type InternalError struct {
	InternalCode string
	Desc         string
	Err          error
}

func (e *InternalError) Error() string       { return describe(e.Desc, e.Err) }
func (e *InternalError) Code() string        { return CodeInternalError }
func (e *InternalError) Description() string { return e.Desc }
func (e *InternalError) Unwrap() error       { return e.Err }

type GenericError struct {
	Desc string
	Err  error
}

func (e *GenericError) Error() string       { return describe(e.Desc, e.Err) }
func (e *GenericError) Code() string        { return CodeGenericError }
func (e *GenericError) Description() string { return e.Desc }
func (e *GenericError) Unwrap() error       { return e.Err }

// ResizerError is the flat, serializable form of an Error.
type ResizerError struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	ResizeMode   string `json:"resizeMode,omitempty"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	ImageType    string `json:"imageType,omitempty"`
	InternalCode string `json:"internalCode,omitempty"`
}

func (e *ResizerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// ToResizerError flattens err. Errors outside the image domain become
// generic errors carrying the original message.
func ToResizerError(err error) *ResizerError {
	if err == nil {
		return nil
	}
	var flat *ResizerError
	if errors.As(err, &flat) {
		return flat
	}

	var (
		mode     *UnsupportedResizeModeError
		imgType  *UnsupportedImageTypeError
		internal *InternalError
		domErr   Error
	)
	switch {
	case errors.As(err, &mode):
		return &ResizerError{Code: mode.Code(), Description: mode.Desc, ResizeMode: mode.Mode, Width: mode.Width, Height: mode.Height}
	case errors.As(err, &imgType):
		return &ResizerError{Code: imgType.Code(), Description: imgType.Desc, ImageType: imgType.ImageType}
	case errors.As(err, &internal):
		return &ResizerError{Code: internal.Code(), Description: internal.Desc, InternalCode: internal.InternalCode}
	case errors.As(err, &domErr):
		return &ResizerError{Code: domErr.Code(), Description: domErr.Description()}
	default:
		return &ResizerError{Code: CodeGenericError, Description: err.Error()}
	}
}
