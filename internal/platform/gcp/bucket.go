// Package gcp wraps the object store used for durable swing video storage.
// Only self-owned swings may be written here.
package gcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/fairwaylabs/swingsense-backend/internal/platform/envutil"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type BucketService interface {
	Upload(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, path string) error
	Close() error
}

type bucketService struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

func NewBucketService(ctx context.Context, baseLog *logger.Logger) (BucketService, error) {
	bucket := envutil.Str("SWING_GCS_BUCKET_NAME", "")
	if bucket == "" {
		return nil, fmt.Errorf("missing SWING_GCS_BUCKET_NAME")
	}
	var opts []option.ClientOption
	if creds := envutil.Str("GCP_CREDENTIALS_FILE", ""); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &bucketService{
		client: client,
		bucket: bucket,
		log:    baseLog.With("service", "BucketService"),
	}, nil
}

func (s *bucketService) Upload(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", path, err)
	}
	s.log.Debug("object uploaded", "path", path)
	return s.PublicURL(path), nil
}

func (s *bucketService) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

func (s *bucketService) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

func (s *bucketService) Close() error { return s.client.Close() }
