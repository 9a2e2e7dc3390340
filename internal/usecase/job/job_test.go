package job

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"image-resizer/internal/domain"
	repoImage "image-resizer/internal/repository/image"
	"image-resizer/internal/repository/image/memory"
	repoJob "image-resizer/internal/repository/job"
	"image-resizer/internal/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Save(ctx context.Context, j *domain.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, contentType string, resizerErr *domain.ResizerError) error {
	return m.Called(ctx, id, status, contentType, resizerErr).Error(0)
}

type MockTaskProducer struct {
	mock.Mock
}

func (m *MockTaskProducer) SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return m.Called(ctx, strategy, key, value).Error(0)
}

// bucketStorage accepts keys of a single "images" bucket.
type bucketStorage struct{}

func (bucketStorage) Key(uri string) (string, error) {
	key := strings.TrimPrefix(uri, "s3://images/")
	if key == "" || strings.HasPrefix(key, "s3://") {
		return "", repoImage.ErrInvalidLocation
	}
	return key, nil
}

func (bucketStorage) Resolver() domain.SourceResolver {
	return func(uri string) (stream.Source, error) {
		return memory.NewSource(nil), nil
	}
}

var testRetries = retry.Strategy{Attempts: 1}

func newTestUsecase() (*JobUsecase, *MockJobRepository, *MockTaskProducer) {
	repo := new(MockJobRepository)
	producer := new(MockTaskProducer)
	return NewJobUsecase(repo, bucketStorage{}, producer, &zlog.Logger, testRetries), repo, producer
}

func TestJobUsecase_Submit(t *testing.T) {
	uc, repo, producer := newTestUsecase()
	width := 100

	repo.On("Save", mock.Anything, mock.MatchedBy(func(j *domain.Job) bool {
		return j.Status == domain.JobQueued && j.Source == "in/cat.jpg" && j.Destination == "out/cat.png"
	})).Return(nil)

	var sent domain.ResizeTask
	producer.On("SendTask", mock.Anything, testRetries, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &sent))
			assert.Equal(t, sent.ID, string(args.Get(2).([]byte)))
		}).
		Return(nil)

	j, err := uc.Submit(context.Background(), Request{
		Source:      "s3://images/in/cat.jpg",
		Destination: "out/cat.png",
		Spec: domain.ResizeSpec{
			ImageType:  "png",
			Width:      &width,
			ResizeMode: "exact",
			Filters:    []string{"blur(1.50)", "watermark(marks/logo.png,south)"},
		},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(j.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobQueued, j.Status)
	assert.Equal(t, j.ID, sent.ID)
	assert.Equal(t, "in/cat.jpg", sent.Source)
	assert.Equal(t, "out/cat.png", sent.Destination)
	assert.Equal(t, []string{"blur(1.50)", "watermark(marks/logo.png,south)"}, sent.Spec.Filters)

	var stored domain.ResizeSpec
	require.NoError(t, json.Unmarshal([]byte(j.Options), &stored))
	assert.Equal(t, 100, *stored.Width)

	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestJobUsecase_SubmitInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"bad source", Request{Source: "s3://other/a.jpg", Destination: "b.jpg"}},
		{"empty destination", Request{Source: "a.jpg", Destination: ""}},
		{"unknown filter", Request{Source: "a.jpg", Destination: "b.jpg", Spec: domain.ResizeSpec{Filters: []string{"sepia(1)"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, producer := newTestUsecase()

			_, err := uc.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			producer.AssertNotCalled(t, "SendTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestJobUsecase_SubmitSaveFails(t *testing.T) {
	uc, repo, producer := newTestUsecase()
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := uc.Submit(context.Background(), Request{Source: "a.jpg", Destination: "b.jpg"})
	assert.ErrorIs(t, err, ErrDatabaseError)
	producer.AssertNotCalled(t, "SendTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJobUsecase_SubmitSendFails(t *testing.T) {
	uc, repo, producer := newTestUsecase()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	producer.On("SendTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	repo.On("UpdateStatus", mock.Anything, mock.Anything, domain.JobFailed, "", mock.MatchedBy(func(e *domain.ResizerError) bool {
		return e != nil && e.Code == domain.CodeGenericError && e.Description == "broker down"
	})).Return(nil)

	_, err := uc.Submit(context.Background(), Request{Source: "a.jpg", Destination: "b.jpg"})
	assert.ErrorIs(t, err, ErrMessageQueueError)
	repo.AssertExpectations(t)
}

func TestJobUsecase_Get(t *testing.T) {
	uc, repo, _ := newTestUsecase()
	id := uuid.NewString()
	missing := uuid.NewString()
	broken := uuid.NewString()

	repo.On("GetByID", mock.Anything, id).Return(&domain.Job{ID: id, Status: domain.JobCompleted}, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, repoJob.ErrJobNotFound)
	repo.On("GetByID", mock.Anything, broken).Return(nil, errors.New("timeout"))

	j, err := uc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, j.Status)

	_, err = uc.Get(context.Background(), missing)
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = uc.Get(context.Background(), broken)
	assert.ErrorIs(t, err, ErrDatabaseError)

	_, err = uc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrJobNotFound)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, "not-a-uuid")
}
