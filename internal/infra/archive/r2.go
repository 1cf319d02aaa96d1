package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/flowdash/internal/domain/deploy"
)

// R2Archive writes deployment snapshots to Cloudflare R2 or any S3 compatible store.
type R2Archive struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

// NewR2Archive constructs the archive adapter.
func NewR2Archive(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*R2Archive, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://"),
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Archive{client: client, bucket: bucket, logger: logger.With("component", "archive.r2")}, nil
}

func (a *R2Archive) ensureBucket(ctx context.Context) error {
	a.bucketOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err == nil && exists {
			return
		}
		err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			a.bucketErr = err
		}
	})
	return a.bucketErr
}

// Put implements deploy.SnapshotArchive.
func (a *R2Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := a.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", a.bucket, err)
	}
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: true,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	a.logger.Debug("snapshot archived", "key", key, "size", info.Size, "etag", info.ETag)
	return nil
}

var _ deploy.SnapshotArchive = (*R2Archive)(nil)

// sanitizeEndpoint strips scheme and path, minio.New wants host[:port].
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
