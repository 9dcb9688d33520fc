package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lgulliver/pxl/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// S3Storage implements BlobStorage on an S3-compatible bucket
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3Storage creates a client for the configured bucket. No request is
// made until the first operation.
func NewS3Storage(cfg *config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires a bucket")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 storage requires an endpoint")
	}

	client, err := minio.New(cfg.Host(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	log.Debug().Str("host", cfg.Host()).Str("bucket", cfg.Bucket).Msg("s3 storage initialized")
	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

// Store uploads content under key
func (s *S3Storage) Store(ctx context.Context, key string, content io.Reader, contentType string, opts ...StoreOption) error {
	startTime := time.Now()
	options := applyOptions(opts)

	putOpts := minio.PutObjectOptions{
		ContentType:        contentType,
		CacheControl:       options.CacheControl,
		ContentDisposition: options.ContentDisposition,
	}
	if options.Public {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, content, readerSize(content), putOpts)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to put object")
		return fmt.Errorf("failed to put %s: %w", key, err)
	}

	log.Debug().
		Str("key", key).
		Str("content_type", contentType).
		Bool("public", options.Public).
		Int64("bytes_written", info.Size).
		Str("etag", info.ETag).
		Dur("duration", time.Since(startTime)).
		Msg("object stored")

	return nil
}

// Retrieve downloads the object stored under key
func (s *S3Storage) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, s.translate(key, err)
	}

	return obj, nil
}

// Delete removes the objects stored under keys in one batch request
func (s *S3Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if isNotFound(rerr.Err) {
			continue
		}
		log.Error().Err(rerr.Err).Str("key", rerr.ObjectName).Msg("failed to delete object")
		errs = append(errs, fmt.Errorf("failed to delete %s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Debug().Strs("keys", keys).Msg("objects deleted")
	return nil
}

// Exists checks if an object exists under key
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

// List returns the keys starting with prefix
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			log.Error().Err(obj.Err).Str("prefix", prefix).Msg("failed to list objects")
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	log.Debug().Str("prefix", prefix).Int("count", len(keys)).Msg("objects listed")
	return keys, nil
}

func (s *S3Storage) translate(key string, err error) error {
	if isNotFound(err) {
		log.Debug().Str("key", key).Msg("object not found")
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	log.Error().Err(err).Str("key", key).Msg("failed to get object")
	return fmt.Errorf("failed to get %s: %w", key, err)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// readerSize lets minio send a single PUT for in-memory payloads instead of
// buffering a multipart upload.
func readerSize(r io.Reader) int64 {
	if l, ok := r.(interface{ Len() int }); ok {
		return int64(l.Len())
	}
	return -1
}
