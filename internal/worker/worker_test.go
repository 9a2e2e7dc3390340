package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"image-resizer/internal/broker"
	"image-resizer/internal/domain"
	"image-resizer/internal/provider/native"
	repoImage "image-resizer/internal/repository/image"
	"image-resizer/internal/repository/image/memory"
	"image-resizer/internal/stream"
	"image-resizer/internal/usecase/resizer"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type fakeConsumer struct {
	mu        sync.Mutex
	pending   []*broker.Message
	committed []int64
}

func (c *fakeConsumer) Start(ctx context.Context, out chan<- *broker.Message, _ retry.Strategy) {
	go func() {
		for _, msg := range c.pending {
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *fakeConsumer) Commit(_ context.Context, msg *broker.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, msg.Offset)
	return nil
}

func (c *fakeConsumer) commits() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.committed...)
}

type MockResultProducer struct {
	mock.Mock
}

func (m *MockResultProducer) SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return m.Called(ctx, strategy, key, value).Error(0)
}

type statusUpdate struct {
	Status      domain.JobStatus
	ContentType string
	Error       *domain.ResizerError
}

type fakeJobs struct {
	mu      sync.Mutex
	updates map[string][]statusUpdate
	err     error
}

func (j *fakeJobs) UpdateStatus(_ context.Context, id string, status domain.JobStatus, contentType string, resizerErr *domain.ResizerError) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	if j.updates == nil {
		j.updates = map[string][]statusUpdate{}
	}
	j.updates[id] = append(j.updates[id], statusUpdate{status, contentType, resizerErr})
	return nil
}

func (j *fakeJobs) history(id string) []statusUpdate {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.updates[id]
}

// bucket keeps objects in memory by key.
type bucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	written map[string]*memory.Destination
}

func newBucket() *bucket {
	return &bucket{objects: map[string][]byte{}, written: map[string]*memory.Destination{}}
}

func (b *bucket) Resolver() domain.SourceResolver {
	return func(uri string) (stream.Source, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		data, ok := b.objects[uri]
		if !ok {
			return nil, fmt.Errorf("%w: %s", repoImage.ErrObjectNotFound, uri)
		}
		return memory.NewSource(data), nil
	}
}

func (b *bucket) Target(uri string) (stream.Destination, error) {
	if uri == "" {
		return nil, repoImage.ErrInvalidLocation
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dst := memory.NewDestination()
	b.written[uri] = dst
	return dst, nil
}

func (b *bucket) output(uri string) *memory.Destination {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written[uri]
}

func pngObject(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(width, height, color.NRGBA{B: 255, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func taskMessage(t *testing.T, offset int64, task domain.ResizeTask) *broker.Message {
	t.Helper()
	value, err := json.Marshal(task)
	require.NoError(t, err)
	return &broker.Message{Key: []byte(task.ID), Value: value, Offset: offset}
}

type testWorker struct {
	*Worker
	consumer *fakeConsumer
	producer *MockResultProducer
	jobs     *fakeJobs
	bucket   *bucket
}

func newTestWorker(t *testing.T, concurrency int) *testWorker {
	t.Helper()
	provider, err := native.New(native.Config{}, &zlog.Logger)
	require.NoError(t, err)
	r := resizer.NewImageResizer(provider, resizer.MustCollection(), resizer.Options{}, &zlog.Logger)

	tw := &testWorker{
		consumer: &fakeConsumer{},
		producer: new(MockResultProducer),
		jobs:     &fakeJobs{},
		bucket:   newBucket(),
	}
	tw.Worker = NewWorker(tw.consumer, tw.producer, tw.jobs, r, tw.bucket, retry.Strategy{Attempts: 1}, concurrency, &zlog.Logger)
	return tw
}

func TestWorker_ProcessMessage(t *testing.T) {
	w := newTestWorker(t, 1)
	w.bucket.objects["in/cat.png"] = pngObject(t, 80, 40)
	width, height := 20, 20

	var published domain.ResizeResult
	w.producer.On("SendResult", mock.Anything, mock.Anything, []byte("job-1"), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &published))
		}).
		Return(nil)

	msg := taskMessage(t, 7, domain.ResizeTask{
		ID:          "job-1",
		Source:      "in/cat.png",
		Destination: "out/cat.jpg",
		Spec:        domain.ResizeSpec{ImageType: "jpeg", Width: &width, Height: &height, ResizeMode: "inbox"},
	})
	require.NoError(t, w.processMessage(context.Background(), msg))

	history := w.jobs.history("job-1")
	require.Len(t, history, 2)
	assert.Equal(t, domain.JobProcessing, history[0].Status)
	assert.Equal(t, statusUpdate{Status: domain.JobCompleted, ContentType: "image/jpeg"}, history[1])

	assert.Equal(t, domain.ResizeResult{ID: "job-1", Status: domain.JobCompleted, ContentType: "image/jpeg"}, published)

	out := w.bucket.output("out/cat.jpg")
	require.NotNil(t, out)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 20, cfg.Height)

	w.producer.AssertExpectations(t)
}

func TestWorker_ProcessMessageFailures(t *testing.T) {
	tests := []struct {
		name string
		task domain.ResizeTask
		code string
	}{
		{"missing source", domain.ResizeTask{ID: "j", Source: "nope.png", Destination: "out.png"}, domain.CodeGenericError},
		{"bad destination", domain.ResizeTask{ID: "j", Source: "in.png", Destination: ""}, domain.CodeGenericError},
		{"unknown mode", domain.ResizeTask{ID: "j", Source: "in.png", Destination: "out.png", Spec: domain.ResizeSpec{ResizeMode: "stretch"}}, domain.CodeUnsupportedResizeMode},
		{"unsupported output", domain.ResizeTask{ID: "j", Source: "in.png", Destination: "out.webp", Spec: domain.ResizeSpec{ImageType: "webp"}}, domain.CodeUnsupportedImageType},
		{"not an image", domain.ResizeTask{ID: "j", Source: "junk", Destination: "out.png"}, domain.CodeInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorker(t, 1)
			w.bucket.objects["in.png"] = pngObject(t, 10, 10)
			w.bucket.objects["junk"] = []byte("junk")
			w.producer.On("SendResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

			require.NoError(t, w.processMessage(context.Background(), taskMessage(t, 1, tt.task)))

			history := w.jobs.history("j")
			require.Len(t, history, 2)
			assert.Equal(t, domain.JobFailed, history[1].Status)
			require.NotNil(t, history[1].Error)
			assert.Equal(t, tt.code, history[1].Error.Code)

			if out := w.bucket.output(tt.task.Destination); out != nil {
				assert.False(t, out.Written())
				assert.Zero(t, out.Created())
			}
		})
	}
}

func TestWorker_MalformedMessageIsSkipped(t *testing.T) {
	w := newTestWorker(t, 1)

	err := w.processMessage(context.Background(), &broker.Message{Value: []byte("{not json"), Offset: 3})
	assert.NoError(t, err)
	w.producer.AssertNotCalled(t, "SendResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_StatusFailureIsRetried(t *testing.T) {
	w := newTestWorker(t, 1)
	w.jobs.err = errors.New("database is down")

	err := w.processMessage(context.Background(), taskMessage(t, 1, domain.ResizeTask{ID: "j", Source: "a", Destination: "b"}))
	assert.Error(t, err)

	w.handle(context.Background(), 0, taskMessage(t, 2, domain.ResizeTask{ID: "j", Source: "a", Destination: "b"}))
	assert.Empty(t, w.consumer.commits())
}

func TestWorker_SendResultFailureStillCommits(t *testing.T) {
	w := newTestWorker(t, 1)
	w.bucket.objects["in.png"] = pngObject(t, 4, 4)
	w.producer.On("SendResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka unavailable"))

	w.handle(context.Background(), 0, taskMessage(t, 9, domain.ResizeTask{ID: "j", Source: "in.png", Destination: "out.png"}))

	assert.Equal(t, []int64{9}, w.consumer.commits())
	assert.Equal(t, domain.JobCompleted, w.jobs.history("j")[1].Status)
}

func TestWorker_Run(t *testing.T) {
	w := newTestWorker(t, 3)
	w.bucket.objects["in.png"] = pngObject(t, 30, 30)
	w.producer.On("SendResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 6; i++ {
		w.consumer.pending = append(w.consumer.pending, taskMessage(t, int64(i), domain.ResizeTask{
			ID:          fmt.Sprintf("job-%d", i),
			Source:      "in.png",
			Destination: fmt.Sprintf("out-%d.png", i),
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(w.consumer.commits()) == 6 }, 10*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.ElementsMatch(t, []int64{0, 1, 2, 3, 4, 5}, w.consumer.commits())
	for i := 0; i < 6; i++ {
		assert.True(t, w.bucket.output(fmt.Sprintf("out-%d.png", i)).Written())
	}
}
