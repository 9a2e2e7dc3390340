// Package memory keeps images in byte slices. It backs tests and small
// request bodies.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"image-resizer/internal/stream"
)

type Source struct {
	data []byte
}

func NewSource(data []byte) *Source {
	return &Source{data: data}
}

func (s *Source) URI() string    { return "memory://" }
func (s *Source) Reusable() bool { return true }

func (s *Source) CreateProducer() stream.Producer {
	return stream.ProducerFunc(func(ctx context.Context, w io.Writer) error {
		return stream.FromReader(bytes.NewReader(s.data)).Produce(ctx, w)
	})
}

// Destination keeps the written bytes. Nothing is stored unless the whole
// payload was consumed without error.
type Destination struct {
	mu      sync.Mutex
	data    []byte
	info    stream.ContentInfo
	created int
	written bool
}

func NewDestination() *Destination {
	return &Destination{}
}

func (d *Destination) URI() string { return "memory://" }

func (d *Destination) CreateConsumer(info stream.ContentInfo) (stream.Consumer, error) {
	d.mu.Lock()
	d.created++
	d.mu.Unlock()

	return stream.ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		var buf bytes.Buffer
		if err := stream.ToWriter(&buf).Consume(ctx, r); err != nil {
			return err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		d.data = buf.Bytes()
		d.info = info
		d.written = true
		return nil
	}), nil
}

func (d *Destination) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

func (d *Destination) Info() stream.ContentInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Written reports whether a complete payload has been stored.
func (d *Destination) Written() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}

// Created returns how many consumers were requested.
func (d *Destination) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}
