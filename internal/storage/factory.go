package storage

import (
	"fmt"
	"net/http"
	"strings"
)

// Backend names accepted by New.
const (
	BackendHTTP  = "http"
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// NormalizeBackend lower-cases backend and maps the empty name to BackendHTTP.
func NormalizeBackend(backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		return BackendHTTP
	}
	return backend
}

// New selects an ObjectStorage implementation. bucketURL is only used by the
// http backend; the others read cfg.
func New(backend, bucketURL string, cfg S3Config, client *http.Client) (ObjectStorage, error) {
	switch NormalizeBackend(backend) {
	case BackendHTTP:
		return NewPublicBucket(bucketURL, client)
	case BackendS3:
		return NewS3Client(cfg)
	case BackendMinio:
		return NewMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
