package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tcossen/data-transform/internal/domain"
)

// MinioClient implements ObjectStorage with the MinIO SDK. Empty credentials
// select anonymous access, which is enough for public buckets.
type MinioClient struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioClient connects to cfg.Endpoint. The endpoint is a host[:port]; a
// scheme, when present, overrides UseSSL.
func NewMinioClient(cfg S3Config) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	creds := credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: cfg.region(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioClient{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ListObjects walks every object under the client prefix joined with prefix.
func (c *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	// Cancelling stops the SDK's listing goroutine when we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]ObjectInfo, 0)
	opts := minio.ListObjectsOptions{
		Prefix:    c.prefix + prefix,
		Recursive: true,
	}
	for object := range c.client.ListObjects(ctx, c.bucket, opts) {
		if object.Err != nil {
			return nil, fmt.Errorf("%w: minio list failed: %v", domain.ErrNetwork, object.Err)
		}
		results = append(results, ObjectInfo{Key: object.Key, Size: object.Size})
	}
	return results, nil
}

// DownloadObject streams key into destPath.
func (c *MinioClient) DownloadObject(ctx context.Context, key, destPath string) error {
	object, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: minio get %s: %v", domain.ErrNetwork, key, err)
	}
	defer object.Close()

	return writeFile(destPath, object)
}

var _ ObjectStorage = (*MinioClient)(nil)
