// Package stream composes single-pass byte producers and consumers into pipelines.
//
// A Producer writes its bytes to a sink exactly once. A Consumer reads its
// bytes from a source exactly once. Pipe connects the two halves with an
// in-memory pipe so that neither side has to buffer the whole payload.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

var ErrSourceConsumed = errors.New("source has already been consumed")

const DefaultContentType = "application/octet-stream"

// ContentInfo describes the payload handed to a destination.
type ContentInfo struct {
	Type   string
	Length int64
}

type Producer interface {
	Produce(ctx context.Context, w io.Writer) error
}

type Consumer interface {
	Consume(ctx context.Context, r io.Reader) error
}

// ProducerFunc adapts an ordinary function to Producer.
type ProducerFunc func(ctx context.Context, w io.Writer) error

func (f ProducerFunc) Produce(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// ConsumerFunc adapts an ordinary function to Consumer.
type ConsumerFunc func(ctx context.Context, r io.Reader) error

func (f ConsumerFunc) Consume(ctx context.Context, r io.Reader) error {
	return f(ctx, r)
}

// Source is a readable image resource.
type Source interface {
	// Reusable reports whether CreateProducer may be called more than once.
	Reusable() bool
	CreateProducer() Producer
}

// Destination is a writable image resource. The content info is only known
// once the output format has been decided.
type Destination interface {
	CreateConsumer(info ContentInfo) (Consumer, error)
}

// Describe returns the URI of a resource when it exposes one.
func Describe(resource any) string {
	if u, ok := resource.(interface{ URI() string }); ok {
		return u.URI()
	}
	if s, ok := resource.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", resource)
}

// FromReader produces the remaining content of r.
func FromReader(r io.Reader) Producer {
	return ProducerFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.Copy(w, &contextReader{ctx: ctx, r: r})
		return err
	})
}

// ToWriter copies everything into w.
func ToWriter(w io.Writer) Consumer {
	return ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		_, err := io.Copy(w, &contextReader{ctx: ctx, r: r})
		return err
	})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type readerSource struct {
	r    io.Reader
	used atomic.Bool
}

// ReaderSource wraps a stream which can only be read once, such as a request body.
func ReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) Reusable() bool { return false }

func (s *readerSource) CreateProducer() Producer {
	return ProducerFunc(func(ctx context.Context, w io.Writer) error {
		if s.used.Swap(true) {
			return ErrSourceConsumed
		}
		return FromReader(s.r).Produce(ctx, w)
	})
}
