package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chartmuseum/storage"

	"github.com/tcossen/data-transform/internal/domain"
)

// S3Config encapsulates the connection info for an authenticated
// S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

func (cfg S3Config) endpointURL() string {
	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		endpoint = fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(cfg.Endpoint, "//"))
	}
	return endpoint
}

func (cfg S3Config) region() string {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	return region
}

func (cfg S3Config) validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("s3 endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("s3 credentials must be provided")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("s3 bucket must be provided")
	}
	return nil
}

// S3Client implements ObjectStorage on top of chartmuseum's Amazon backend.
// Keys are relative to the configured prefix.
type S3Client struct {
	backend storage.Backend
}

// NewS3Client builds an S3Client for a path-style S3-compatible endpoint.
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	region := cfg.region()

	// The Amazon backend resolves credentials from the environment.
	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		cfg.Prefix,
		region,
		cfg.endpointURL(),
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(true),
		},
	)

	return &S3Client{backend: backend}, nil
}

// ListObjects lists the objects below prefix. The backend's own prefix is
// applied first.
func (c *S3Client) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	files, err := c.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 list failed: %v", domain.ErrNetwork, err)
	}
	results := make([]ObjectInfo, 0, len(files))
	for _, object := range files {
		results = append(results, ObjectInfo{
			Key:  object.Path,
			Size: int64(len(object.Content)),
		})
	}
	return results, nil
}

// DownloadObject downloads an object to the provided destination path. The
// backend buffers the whole object before it is written.
func (c *S3Client) DownloadObject(ctx context.Context, key, destPath string) error {
	object, err := c.backend.GetObject(key)
	if err != nil {
		return fmt.Errorf("%w: s3 get %s: %v", domain.ErrNetwork, key, err)
	}
	return writeFile(destPath, bytes.NewReader(object.Content))
}

var _ ObjectStorage = (*S3Client)(nil)

func awsBool(v bool) *bool {
	return &v
}
