package storage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tcossen/data-transform/internal/domain"
)

// listBucketResult is the subset of the S3 ListObjects document we read.
// IsTruncated is decoded but continuation tokens are not followed.
type listBucketResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key  string `xml:"Key"`
		Size int64  `xml:"Size"`
	} `xml:"Contents"`
}

// PublicBucket reads a publicly listable bucket over plain HTTP GETs.
type PublicBucket struct {
	baseURL string
	client  *http.Client
}

// NewPublicBucket returns a client for the bucket at baseURL. Object URLs are
// built as baseURL + escaped key, so baseURL normally ends with a slash.
func NewPublicBucket(baseURL string, client *http.Client) (*PublicBucket, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("bucket url must be provided")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid bucket url %q: %w", baseURL, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PublicBucket{baseURL: baseURL, client: client}, nil
}

// ListObjects fetches the listing document once and returns its keys in
// document order. Only the first page is returned.
func (b *PublicBucket) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	listURL := b.baseURL
	if prefix != "" {
		u, err := url.Parse(b.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid bucket url %q: %w", b.baseURL, err)
		}
		q := u.Query()
		q.Set("prefix", prefix)
		u.RawQuery = q.Encode()
		listURL = u.String()
	}

	body, err := b.get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result listBucketResult
	if err := xml.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode listing from %s: %v", domain.ErrParse, listURL, err)
	}

	objects := make([]ObjectInfo, 0, len(result.Contents))
	for _, c := range result.Contents {
		objects = append(objects, ObjectInfo{Key: c.Key, Size: c.Size})
	}
	return objects, nil
}

// DownloadObject streams the object at baseURL + escaped key into destPath.
func (b *PublicBucket) DownloadObject(ctx context.Context, key, destPath string) error {
	body, err := b.get(ctx, b.ObjectURL(key))
	if err != nil {
		return err
	}
	defer body.Close()

	return writeFile(destPath, body)
}

// ObjectURL returns the download URL for key.
func (b *PublicBucket) ObjectURL(key string) string {
	return b.baseURL + escapeKey(key)
}

// escapeKey percent-encodes every byte of key except ASCII letters, digits
// and -_.!~*'(). Slashes are encoded too, so the key stays one path segment.
func escapeKey(key string) string {
	const upperhex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func (b *PublicBucket) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", domain.ErrNetwork, target, err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrNetwork, target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: unexpected status %s", domain.ErrNetwork, target, resp.Status)
	}
	return resp.Body, nil
}

var _ ObjectStorage = (*PublicBucket)(nil)
