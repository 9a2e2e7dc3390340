package image

import (
	"encoding/json"
	"errors"
	"net/http"

	"image-resizer/internal/domain"
	"image-resizer/internal/http-server/handler/image/dto"
	"image-resizer/internal/stream"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

type ImageHandler struct {
	resizer     imageResizer
	resolve     domain.SourceResolver
	maxBodySize int64
	validate    *validator.Validate
	logger      *zlog.Zerolog
}

// NewImageHandler serves resize requests. Watermark URIs in filters are
// resolved with resolve.
func NewImageHandler(resizer imageResizer, resolve domain.SourceResolver, maxBodySize int64, logger *zlog.Zerolog) *ImageHandler {
	if maxBodySize <= 0 {
		maxBodySize = domain.DefaultMaxBodySize
	}
	return &ImageHandler{
		resizer:     resizer,
		resolve:     resolve,
		maxBodySize: maxBodySize,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Resize streams the transformed request body back. The response status and
// Content-Type are only written once the output type has been decided.
func (h *ImageHandler) Resize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := dto.ParseResizeQuery(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	opts, err := req.Spec().Options(h.resolve)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer body.Close()

	dst := &responseDestination{w: w}
	if err := h.resizer.Resize(ctx, stream.ReaderSource(body), dst, opts); err != nil {
		if dst.started {
			h.logger.Error().Err(err).Str("options", opts.String()).Msg("Resize failed after response started")
			return
		}
		h.handleResizeError(w, err, opts)
		return
	}

	h.logger.Info().Str("options", opts.String()).Str("content_type", dst.contentType).Msg("Image resized")
}

// Analyze reports the dimensions, resolution and metadata of the request body.
func (h *ImageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer body.Close()

	info, err := h.resizer.Analyze(r.Context(), stream.ReaderSource(body))
	if err != nil {
		h.handleResizeError(w, err, domain.NewResizeOptions())
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}

func (h *ImageHandler) handleResizeError(w http.ResponseWriter, err error, opts domain.ResizeOptions) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondError(w, http.StatusRequestEntityTooLarge, "Image too large", nil)
		return
	}

	resizerErr := domain.ToResizerError(err)
	status := StatusFor(resizerErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("options", opts.String()).Msg("Resize failed")
	} else {
		h.logger.Warn().Err(err).Str("options", opts.String()).Msg("Resize rejected")
	}

	h.respondJSON(w, status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: resizerErr.Description,
		Resizer: resizerErr,
	})
}

// StatusFor maps an error code to the HTTP status reported for it.
func StatusFor(code string) int {
	switch code {
	case domain.CodeUnsupportedResizeMode, domain.CodeUnsupportedImageType:
		return http.StatusBadRequest
	case domain.CodeInvalidImage:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
