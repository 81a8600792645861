package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcossen/data-transform/internal/domain"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestCopyObject(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, copyObject(&out, strings.NewReader("payload"), "a.zip"))
	assert.Equal(t, "payload", out.String())

	err := copyObject(&out, failingReader{}, "a.zip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.False(t, errors.Is(err, domain.ErrFilesystem))
	assert.Contains(t, err.Error(), "connection reset")

	err = copyObject(failingWriter{}, strings.NewReader("payload"), "a.zip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFilesystem))
	assert.False(t, errors.Is(err, domain.ErrNetwork))
	assert.Contains(t, err.Error(), "no space left on device")
}
