package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tcossen/data-transform/internal/domain"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the bucket operations a run needs: list the keys and
// fetch one object to a local path.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
}

// Keys returns the object keys in listing order.
func Keys(objects []ObjectInfo) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys
}

// writeFile streams r into destPath, creating or truncating it. A failed copy
// leaves whatever was written in place.
func writeFile(destPath string, r io.Reader) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrFilesystem, destPath, err)
	}
	if err := copyObject(f, r, destPath); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrFilesystem, destPath, err)
	}
	return nil
}

// copyObject copies src to dst. Read failures are network errors, write
// failures are filesystem errors.
func copyObject(dst io.Writer, src io.Reader, destPath string) error {
	body := &bodyReader{r: src}
	if _, err := io.Copy(dst, body); err != nil {
		if body.err != nil {
			return fmt.Errorf("%w: read body for %s: %v", domain.ErrNetwork, destPath, body.err)
		}
		return fmt.Errorf("%w: write %s: %v", domain.ErrFilesystem, destPath, err)
	}
	return nil
}

// bodyReader remembers the first non-EOF error of the wrapped reader.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF && b.err == nil {
		b.err = err
	}
	return n, err
}
