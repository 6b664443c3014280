package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/sizesnap/internal/observability"
)

// S3Storage implements the Storage interface using S3-compatible storage (AWS S3, MinIO, etc.)
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3Storage creates a new S3-compatible storage provider for one bucket
func NewS3Storage(cfg S3Config, bucket string) (*S3Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("S3 endpoint is not configured (set SIZESNAP_S3_ENDPOINT)")
	}

	// Create MinIO client (works with S3-compatible services)
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	log.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("region", cfg.Region).
		Str("bucket", bucket).
		Bool("ssl", cfg.UseSSL).
		Msg("S3-compatible snapshot storage initialized")

	return &S3Storage{
		client: client,
		bucket: bucket,
	}, nil
}

// Name returns the provider name
func (s3 *S3Storage) Name() string {
	return "s3"
}

// Read downloads a document from S3
func (s3 *S3Storage) Read(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := observability.StartStorageSpan(ctx, "read", s3.Name(), key)
	defer func() { observability.EndSpan(span, err) }()

	obj, err := s3.client.GetObject(ctx, s3.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s3.translateError(err, key)
	}
	defer func() { _ = obj.Close() }()

	data, err = io.ReadAll(obj)
	if err != nil {
		return nil, s3.translateError(err, key)
	}
	return data, nil
}

// Write uploads a document to S3
func (s3 *S3Storage) Write(ctx context.Context, key string, data []byte) (err error) {
	ctx, span := observability.StartStorageSpan(ctx, "write", s3.Name(), key)
	defer func() { observability.EndSpan(span, err) }()

	info, err := s3.client.PutObject(ctx, s3.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().
		Str("bucket", s3.bucket).
		Str("key", key).
		Int64("size", info.Size).
		Msg("Snapshot uploaded to S3")

	return nil
}

func (s3 *S3Storage) translateError(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to download %s from S3: %w", key, err)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
