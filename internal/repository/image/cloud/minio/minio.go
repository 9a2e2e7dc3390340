package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"image-resizer/internal/config"
	"image-resizer/internal/domain"
	repoImage "image-resizer/internal/repository/image"
	"image-resizer/internal/stream"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

const (
	uriScheme = "s3://"
	partSize  = 16 << 20
)

type FileRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &FileRepository{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		retries: retries,
		logger:  logger,
	}, nil
}

func (r *FileRepository) EnsureBucket(ctx context.Context) error {
	return retry.Do(func() error {
		exists, err := r.client.BucketExists(ctx, r.bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
		if exists {
			return nil
		}
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Bucket created")
		return nil
	}, r.retries)
}

// GetObject opens an object for streaming. A missing key is reported as
// ErrObjectNotFound.
func (r *FileRepository) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	var obj *minio.Object
	err := retry.Do(func() error {
		o, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		if _, err := o.Stat(); err != nil {
			o.Close()
			if isNotFound(err) {
				return nil
			}
			return err
		}
		obj = o
		return nil
	}, r.retries)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get object %s: %v", repoImage.ErrStorageError, key, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", repoImage.ErrObjectNotFound, key)
	}
	return obj, nil
}

func (r *FileRepository) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if size < 0 {
		opts.PartSize = partSize
	}
	info, err := r.client.PutObject(ctx, r.bucket, key, reader, size, opts)
	if err != nil {
		return fmt.Errorf("%w: failed to put object %s: %v", repoImage.ErrStorageError, key, err)
	}
	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("key", key).
		Int64("size", info.Size).
		Str("content_type", contentType).
		Msg("Object uploaded")
	return nil
}

func (r *FileRepository) URI(key string) string {
	return uriScheme + r.bucket + "/" + key
}

// Source returns a reusable source reading the object at key.
func (r *FileRepository) Source(key string) *Source {
	return &Source{repo: r, key: key}
}

// Destination returns a destination uploading to key. The upload starts
// only once the content type is known.
func (r *FileRepository) Destination(key string) *Destination {
	return &Destination{repo: r, key: key}
}

// Resolver maps watermark URIs to objects of the configured bucket. Both
// bare keys and s3://<bucket>/<key> are accepted.
func (r *FileRepository) Resolver() domain.SourceResolver {
	return func(uri string) (stream.Source, error) {
		key, err := r.Key(uri)
		if err != nil {
			return nil, err
		}
		return r.Source(key), nil
	}
}

// Target maps a destination URI to an upload destination in the bucket.
func (r *FileRepository) Target(uri string) (stream.Destination, error) {
	key, err := r.Key(uri)
	if err != nil {
		return nil, err
	}
	return r.Destination(key), nil
}

// Key returns the object key addressed by uri.
func (r *FileRepository) Key(uri string) (string, error) {
	key := uri
	if rest, ok := strings.CutPrefix(uri, uriScheme); ok {
		bucket, k, found := strings.Cut(rest, "/")
		if !found || bucket != r.bucket {
			return "", fmt.Errorf("%w: %s", repoImage.ErrInvalidLocation, uri)
		}
		key = k
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", repoImage.ErrInvalidLocation)
	}
	return key, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

type Source struct {
	repo *FileRepository
	key  string
}

func (s *Source) URI() string    { return s.repo.URI(s.key) }
func (s *Source) Reusable() bool { return true }

func (s *Source) CreateProducer() stream.Producer {
	return stream.ProducerFunc(func(ctx context.Context, w io.Writer) error {
		obj, err := s.repo.GetObject(ctx, s.key)
		if err != nil {
			return err
		}
		defer obj.Close()
		return stream.FromReader(obj).Produce(ctx, w)
	})
}

type Destination struct {
	repo *FileRepository
	key  string
}

func (d *Destination) URI() string { return d.repo.URI(d.key) }

func (d *Destination) CreateConsumer(info stream.ContentInfo) (stream.Consumer, error) {
	if d.key == "" {
		return nil, fmt.Errorf("%w: empty key", repoImage.ErrInvalidLocation)
	}
	return stream.ConsumerFunc(func(ctx context.Context, r io.Reader) error {
		size := info.Length
		if size <= 0 {
			size = -1
		}
		return d.repo.PutObject(ctx, d.key, r, size, info.Type)
	}), nil
}
