package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcossen/data-transform/internal/domain"
)

const bucketListingXML = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>data</Name>
  <Prefix></Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>second.zip</Key>
    <LastModified>2024-01-01T00:00:00.000Z</LastModified>
    <ETag>&quot;a1&quot;</ETag>
    <Size>6</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
  <Contents>
    <Key>first.zip</Key>
    <LastModified>2024-01-02T00:00:00.000Z</LastModified>
    <ETag>&quot;b2&quot;</ETag>
    <Size>5</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
</ListBucketResult>`

// fakeS3 answers path-style list and get requests for bucket "data".
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	objects  map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/data"), "/")
	if key == "" {
		xmlResponse(w, http.StatusOK, bucketListingXML)
		return
	}

	body, ok := f.objects[key]
	if !ok {
		xmlResponse(w, http.StatusNotFound, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
		return
	}
	w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	w.Header().Set("ETag", `"a1"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{"second.zip": "second", "first.zip": "first"}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

func TestMinioClientListAndDownload(t *testing.T) {
	t.Parallel()

	fake, server := newFakeS3(t)

	client, err := NewMinioClient(S3Config{Endpoint: server.URL, Bucket: "data", Region: "us-east-1"})
	require.NoError(t, err)

	objects, err := client.ListObjects(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"second.zip", "first.zip"}, Keys(objects))
	assert.Equal(t, int64(6), objects[0].Size)

	dest := filepath.Join(t.TempDir(), "second.zip")
	require.NoError(t, client.DownloadObject(context.Background(), "second.zip", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.requests, "GET /data/second.zip")
}

func TestMinioClientDownloadMissing(t *testing.T) {
	t.Parallel()

	_, server := newFakeS3(t)

	client, err := NewMinioClient(S3Config{Endpoint: server.URL, Bucket: "data"})
	require.NoError(t, err)

	err = client.DownloadObject(context.Background(), "nope.zip", filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
}

func TestS3ClientListAndDownload(t *testing.T) {
	_, server := newFakeS3(t)

	client, err := NewS3Client(S3Config{
		Endpoint:  server.URL,
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Bucket:    "data",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	objects, err := client.ListObjects(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"second.zip", "first.zip"}, Keys(objects))

	dest := filepath.Join(t.TempDir(), "first.zip")
	require.NoError(t, client.DownloadObject(context.Background(), "first.zip", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	err = client.DownloadObject(context.Background(), "nope.zip", filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
}

func TestMinioClientListError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xmlResponse(w, http.StatusForbidden, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer server.Close()

	client, err := NewMinioClient(S3Config{Endpoint: server.URL, Bucket: "data"})
	require.NoError(t, err)

	_, err = client.ListObjects(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
}
