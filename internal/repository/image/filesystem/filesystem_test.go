package filesystem

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	repoImage "image-resizer/internal/repository/image"
	"image-resizer/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src stream.Source) ([]byte, error) {
	t.Helper()
	var buf bytes.Buffer
	err := stream.Consume(context.Background(), src, stream.ToWriter(&buf))
	return buf.Bytes(), err
}

func TestSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.bin")
	payload := bytes.Repeat([]byte("0123456789"), DefaultBufferSize/5)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	src, err := NewSource(path)
	require.NoError(t, err)
	assert.True(t, src.Reusable())
	assert.Equal(t, "file://"+filepath.ToSlash(path), src.URI())

	for i := 0; i < 2; i++ {
		data, err := readAll(t, src)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	}
}

func TestSource_NotFound(t *testing.T) {
	src, err := NewSource(filepath.Join(t.TempDir(), "missing.png"))
	require.NoError(t, err)

	_, err = readAll(t, src)
	assert.ErrorIs(t, err, repoImage.ErrObjectNotFound)
}

func TestNewSource_EmptyPath(t *testing.T) {
	_, err := NewSource("  ")
	assert.ErrorIs(t, err, repoImage.ErrInvalidLocation)

	_, err = NewDestination("")
	assert.ErrorIs(t, err, repoImage.ErrInvalidLocation)
}

func TestDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	dst, err := NewDestination(path)
	require.NoError(t, err)

	consumer, err := dst.CreateConsumer(stream.ContentInfo{Type: "image/png"})
	require.NoError(t, err)
	require.NoError(t, stream.Pipe(context.Background(), stream.FromReader(bytes.NewReader([]byte("image"))), consumer))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDestination_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	dst, err := NewDestination(path)
	require.NoError(t, err)
	consumer, err := dst.CreateConsumer(stream.ContentInfo{})
	require.NoError(t, err)

	failure := errors.New("encoder failed")
	producer := stream.ProducerFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := w.Write([]byte("half an ima")); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, stream.Pipe(context.Background(), producer, consumer), failure)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResolver(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "marks"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "marks", "logo.png"), []byte("logo"), 0o644))

	resolve := Resolver(root)

	for _, uri := range []string{
		"marks/logo.png",
		"file://" + filepath.ToSlash(filepath.Join(root, "marks", "logo.png")),
		"marks/../marks/logo.png",
	} {
		t.Run(uri, func(t *testing.T) {
			src, err := resolve(uri)
			require.NoError(t, err)
			data, err := readAll(t, src)
			require.NoError(t, err)
			assert.Equal(t, []byte("logo"), data)
		})
	}
}

func TestResolver_OutsideRoot(t *testing.T) {
	root := t.TempDir()
	resolve := Resolver(root)

	for _, uri := range []string{
		"../secret.png",
		"marks/../../secret.png",
		"/etc/passwd",
		"file:///etc/passwd",
	} {
		t.Run(uri, func(t *testing.T) {
			_, err := resolve(uri)
			assert.ErrorIs(t, err, repoImage.ErrOutsideRoot)
		})
	}
}

func TestResolver_NoRoot(t *testing.T) {
	_, err := Resolver("")("logo.png")
	assert.ErrorIs(t, err, repoImage.ErrInvalidLocation)
}
