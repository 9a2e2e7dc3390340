package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

type Transformation interface {
	Transform(ctx context.Context, r io.Reader, w io.Writer) error
}

type TransformationFunc func(ctx context.Context, r io.Reader, w io.Writer) error

func (f TransformationFunc) Transform(ctx context.Context, r io.Reader, w io.Writer) error {
	return f(ctx, r, w)
}

// Pipe runs p and c concurrently, feeding the output of p into c.
// The first error of either side is returned and unblocks the other side.
func Pipe(ctx context.Context, p Producer, c Consumer) error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := p.Produce(gctx, pw)
		pw.CloseWithError(err)
		return err
	})

	g.Go(func() error {
		err := c.Consume(gctx, pr)
		if err != nil {
			pr.CloseWithError(err)
		} else {
			pr.Close()
		}
		return err
	})

	return g.Wait()
}

// Chain returns a producer which passes the output of p through t.
// Input left unread by t is discarded so that p can finish.
func Chain(p Producer, t Transformation) Producer {
	return ProducerFunc(func(ctx context.Context, w io.Writer) error {
		return Pipe(ctx, p, ConsumerFunc(func(ctx context.Context, r io.Reader) error {
			if err := t.Transform(ctx, r, w); err != nil {
				return err
			}
			_, err := io.Copy(io.Discard, r)
			return err
		}))
	})
}

// Delay postpones the creation of a consumer until the first byte of input is
// available or the input ends cleanly. When the input fails before that,
// create is never called.
func Delay(create func(ctx context.Context) (Consumer, error)) Consumer {
	return ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		br := bufio.NewReader(r)
		if _, err := br.Peek(1); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		c, err := create(ctx)
		if err != nil {
			return err
		}
		return c.Consume(ctx, br)
	})
}

// Decision is a value resolved at most once by one side of a pipeline and
// read by the other.
type Decision[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// Resolve stores v unless a value was already stored.
func (d *Decision[T]) Resolve(v T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.set {
		return false
	}
	d.value = v
	d.set = true
	return true
}

func (d *Decision[T]) Value() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.set
}

// Consume feeds a fresh producer of src into c.
func Consume(ctx context.Context, src Source, c Consumer) error {
	return Pipe(ctx, src.CreateProducer(), c)
}
