package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"image-resizer/internal/domain"
	"image-resizer/internal/http-server/handler/job/dto"
	job_uc "image-resizer/internal/usecase/job"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type MockJobUsecase struct {
	mock.Mock
}

func (m *MockJobUsecase) Submit(ctx context.Context, req job_uc.Request) (*domain.Job, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobUsecase) Get(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func newTestRouter(uc jobUsecase) http.Handler {
	h := NewJobHandler(uc, &zlog.Logger)
	r := chi.NewRouter()
	r.Post("/api/jobs", h.Submit)
	r.Get("/api/jobs/{id}", h.Get)
	return r
}

func TestJobHandler_Submit(t *testing.T) {
	uc := new(MockJobUsecase)
	width := 320
	expected := job_uc.Request{
		Source:      "photos/cat.jpg",
		Destination: "thumbs/cat.png",
		Spec:        domain.ResizeSpec{ImageType: "png", Width: &width, ResizeMode: "exact"},
	}
	uc.On("Submit", mock.Anything, expected).
		Return(&domain.Job{ID: "job-1", Status: domain.JobQueued}, nil)

	body := `{"source":"photos/cat.jpg","destination":"thumbs/cat.png","options":{"imageType":"png","width":320,"resizeMode":"exact"}}`
	rec := httptest.NewRecorder()
	newTestRouter(uc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp dto.SubmitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, dto.SubmitResponse{ID: "job-1", Status: "queued"}, resp)
	uc.AssertExpectations(t)
}

func TestJobHandler_SubmitErrors(t *testing.T) {
	valid := `{"source":"a.jpg","destination":"b.jpg"}`

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"source":`, nil, http.StatusBadRequest},
		{"missing destination", `{"source":"a.jpg"}`, nil, http.StatusBadRequest},
		{"invalid width", `{"source":"a.jpg","destination":"b.jpg","options":{"width":0}}`, nil, http.StatusBadRequest},
		{"rejected by usecase", valid, fmt.Errorf("%w: bad filter", job_uc.ErrInvalidRequest), http.StatusBadRequest},
		{"queue unavailable", valid, job_uc.ErrMessageQueueError, http.StatusServiceUnavailable},
		{"database failure", valid, job_uc.ErrDatabaseError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockJobUsecase)
			if tt.err != nil {
				uc.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := httptest.NewRecorder()
			newTestRouter(uc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, http.StatusText(tt.status), resp.Error)
			uc.AssertExpectations(t)
		})
	}
}

func TestJobHandler_Get(t *testing.T) {
	uc := new(MockJobUsecase)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.On("Get", mock.Anything, "job-1").Return(&domain.Job{
		ID:          "job-1",
		Source:      "a.jpg",
		Destination: "b.webp",
		Status:      domain.JobFailed,
		Error:       &domain.ResizerError{Code: domain.CodeUnsupportedImageType, Description: "no webp", ImageType: "webp"},
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Second),
	}, nil)
	uc.On("Get", mock.Anything, "missing").Return(nil, job_uc.ErrJobNotFound)
	uc.On("Get", mock.Anything, "broken").Return(nil, job_uc.ErrDatabaseError)

	router := newTestRouter(uc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "failed", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.CodeUnsupportedImageType, resp.Error.Code)
	assert.Equal(t, "webp", resp.Error.ImageType)
	assert.True(t, created.Equal(resp.CreatedAt))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	uc.AssertExpectations(t)
}
