package job

import (
	"encoding/json"
	"errors"
	"net/http"

	"image-resizer/internal/http-server/handler/job/dto"
	job_uc "image-resizer/internal/usecase/job"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const maxRequestSize = 1 << 20

type JobHandler struct {
	usecase  jobUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewJobHandler(usecase jobUsecase, logger *zlog.Zerolog) *JobHandler {
	return &JobHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	j, err := h.usecase.Submit(r.Context(), job_uc.Request{
		Source:      req.Source,
		Destination: req.Destination,
		Spec:        req.Options,
	})
	if err != nil {
		switch {
		case errors.Is(err, job_uc.ErrInvalidRequest):
			h.respondError(w, http.StatusBadRequest, "Invalid job", err)
		case errors.Is(err, job_uc.ErrMessageQueueError):
			h.logger.Error().Err(err).Msg("Failed to queue job")
			h.respondError(w, http.StatusServiceUnavailable, "Failed to queue job", err)
		default:
			h.logger.Error().Err(err).Msg("Failed to submit job")
			h.respondError(w, http.StatusInternalServerError, "Failed to submit job", err)
		}
		return
	}

	h.respondJSON(w, http.StatusAccepted, dto.SubmitResponse{ID: j.ID, Status: string(j.Status)})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	j, err := h.usecase.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, job_uc.ErrJobNotFound) {
			h.respondError(w, http.StatusNotFound, "Job not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("job_id", id).Msg("Failed to get job")
		h.respondError(w, http.StatusInternalServerError, "Failed to get job", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.JobResponse{
		ID:          j.ID,
		Source:      j.Source,
		Destination: j.Destination,
		Status:      string(j.Status),
		ContentType: j.ContentType,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	})
}

func (h *JobHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
	}
}

func (h *JobHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	h.respondJSON(w, status, response)
}
