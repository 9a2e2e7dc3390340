// Package filesystem reads and writes images on the local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"image-resizer/internal/domain"
	repoImage "image-resizer/internal/repository/image"
	"image-resizer/internal/stream"
)

const DefaultBufferSize = 32 * 1024

type Source struct {
	path string
}

func NewSource(path string) (*Source, error) {
	abs, err := absolute(path)
	if err != nil {
		return nil, err
	}
	return &Source{path: abs}, nil
}

func (s *Source) Path() string   { return s.path }
func (s *Source) URI() string    { return "file://" + filepath.ToSlash(s.path) }
func (s *Source) Reusable() bool { return true }

func (s *Source) CreateProducer() stream.Producer {
	return stream.ProducerFunc(func(ctx context.Context, w io.Writer) error {
		f, err := os.Open(s.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", repoImage.ErrObjectNotFound, s.path)
			}
			return fmt.Errorf("failed to open %s: %w", s.path, err)
		}
		defer f.Close()

		buf := make([]byte, DefaultBufferSize)
		if _, err := io.CopyBuffer(w, readerFunc(func(p []byte) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return f.Read(p)
		}), buf); err != nil {
			return fmt.Errorf("failed to read %s: %w", s.path, err)
		}
		return nil
	})
}

// Destination writes to a temporary file next to the target and moves it in
// place only after the whole image was written.
type Destination struct {
	path string
}

func NewDestination(path string) (*Destination, error) {
	abs, err := absolute(path)
	if err != nil {
		return nil, err
	}
	return &Destination{path: abs}, nil
}

func (d *Destination) Path() string { return d.path }
func (d *Destination) URI() string  { return "file://" + filepath.ToSlash(d.path) }

func (d *Destination) CreateConsumer(stream.ContentInfo) (stream.Consumer, error) {
	return stream.ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		dir := filepath.Dir(d.path)
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*")
		if err != nil {
			return fmt.Errorf("failed to create file in %s: %w", dir, err)
		}
		committed := false
		defer func() {
			if !committed {
				tmp.Close()
				os.Remove(tmp.Name())
			}
		}()

		if _, err := io.CopyBuffer(tmp, r, make([]byte, DefaultBufferSize)); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to flush %s: %w", tmp.Name(), err)
		}
		if err := os.Rename(tmp.Name(), d.path); err != nil {
			os.Remove(tmp.Name())
			committed = true
			return fmt.Errorf("failed to move image to %s: %w", d.path, err)
		}
		committed = true
		return nil
	}), nil
}

// Resolver resolves watermark URIs to files below root. Both plain paths
// relative to root and file:// URIs are accepted.
func Resolver(root string) domain.SourceResolver {
	return func(uri string) (stream.Source, error) {
		if root == "" {
			return nil, fmt.Errorf("%w: no storage root configured", repoImage.ErrInvalidLocation)
		}
		base, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repoImage.ErrInvalidLocation, err)
		}
		p := strings.TrimPrefix(uri, "file://")
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		p = filepath.Clean(p)
		rel, err := filepath.Rel(base, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s", repoImage.ErrOutsideRoot, uri)
		}
		return NewSource(p)
	}
}

func absolute(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", repoImage.ErrInvalidLocation)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repoImage.ErrInvalidLocation, err)
	}
	return abs, nil
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
