package fetch

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tcossen/data-transform/internal/storage"
)

// Failure records a key whose download failed.
type Failure struct {
	Key string
	Err error
}

// Summary reports the outcome of a download loop.
type Summary struct {
	Keys       []string
	Downloaded []string
	Failed     []Failure
}

// Downloader copies bucket objects into a local directory one at a time.
type Downloader struct {
	client storage.ObjectStorage
	log    zerolog.Logger
	prefix string
}

// NewDownloader creates a Downloader. prefix narrows the listing and may be empty.
func NewDownloader(client storage.ObjectStorage, log zerolog.Logger, prefix string) *Downloader {
	return &Downloader{client: client, log: log, prefix: prefix}
}

// ListFiles returns every key in the bucket listing, in listing order.
func (d *Downloader) ListFiles(ctx context.Context) ([]string, error) {
	objects, err := d.client.ListObjects(ctx, d.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}
	return storage.Keys(objects), nil
}

// DownloadAll lists the bucket and downloads every key into destDir. Only a
// listing failure is returned; per-key failures are in the summary.
func (d *Downloader) DownloadAll(ctx context.Context, destDir string) (*Summary, error) {
	keys, err := d.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Info().Int("count", len(keys)).Msg("listed bucket objects")
	return d.DownloadFiles(ctx, keys, destDir), nil
}

// DownloadFiles downloads keys sequentially in the given order. A failed key
// is logged and skipped. The loop stops early only when ctx is done.
func (d *Downloader) DownloadFiles(ctx context.Context, keys []string, destDir string) *Summary {
	summary := &Summary{Keys: keys}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			d.log.Warn().Err(err).Msg("download loop cancelled")
			break
		}

		d.log.Info().Str("key", key).Msg("downloading file")
		if err := d.DownloadFile(ctx, key, destDir); err != nil {
			d.log.Error().Err(err).Str("key", key).Msg("failed to download file")
			summary.Failed = append(summary.Failed, Failure{Key: key, Err: err})
			continue
		}
		summary.Downloaded = append(summary.Downloaded, key)
	}
	return summary
}

// DownloadFile writes key to destDir/<base name of key>, overwriting any
// existing file.
func (d *Downloader) DownloadFile(ctx context.Context, key, destDir string) error {
	return d.client.DownloadObject(ctx, key, LocalPath(destDir, key))
}

// LocalPath is the file a key is downloaded to.
func LocalPath(destDir, key string) string {
	return filepath.Join(destDir, path.Base(key))
}
