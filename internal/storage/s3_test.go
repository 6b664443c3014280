package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: the round-trip tests require a running MinIO instance at minio:9000
// docker run -p 9000:9000 -e "MINIO_ROOT_USER=minioadmin" -e "MINIO_ROOT_PASSWORD=minioadmin" minio/minio server /data

// setupS3Storage creates an S3Storage instance with a fresh bucket
func setupS3Storage(t *testing.T) *S3Storage {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping S3 tests in short mode")
	}

	bucket := fmt.Sprintf("sizesnap-%d-%d", time.Now().UnixNano(), rand.Int63n(1000000))
	s3, err := NewS3Storage(S3Config{
		Endpoint:  "minio:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
	}, bucket)
	if err != nil {
		t.Skipf("Skipping S3 tests: cannot create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s3.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: "us-east-1"}); err != nil {
		t.Skipf("Skipping S3 tests: MinIO not available: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		for obj := range s3.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
			_ = s3.client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{})
		}
		_ = s3.client.RemoveBucket(ctx, bucket)
	})

	return s3
}

func TestNewS3Storage_RequiresEndpoint(t *testing.T) {
	_, err := NewS3Storage(S3Config{}, "bucket")
	assert.ErrorContains(t, err, "S3 endpoint is not configured")
}

func TestS3Storage_Name(t *testing.T) {
	s3, err := NewS3Storage(S3Config{Endpoint: "localhost:9000"}, "bucket")
	require.NoError(t, err)
	assert.Equal(t, "s3", s3.Name())
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNoSuchKey(errors.New("connection refused")))
}

func TestS3Storage_WriteAndRead(t *testing.T) {
	s3 := setupS3Storage(t)
	ctx := context.Background()

	content := []byte(`{"dist/index.js":{"bundled":1,"minified":1,"gzipped":21}}`)
	require.NoError(t, s3.Write(ctx, "main/.size-snapshot.json", content))

	data, err := s3.Read(ctx, "main/.size-snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestS3Storage_ReadMissing(t *testing.T) {
	s3 := setupS3Storage(t)

	_, err := s3.Read(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
