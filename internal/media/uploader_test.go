package media

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestUploaderSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	u, err := NewUploader(dir, "/uploads/", 1<<20, nil)
	require.NoError(t, err)

	data := pngBytes(t)
	url, err := u.Save(ctx, "cover.jpeg", bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"), "extension follows detected type")

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUploaderRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		u, err := NewUploader(t.TempDir(), "/uploads", 1<<20, nil)
		require.NoError(t, err)
		_, err = u.Save(ctx, "notes.txt", strings.NewReader("plain text, not an image"))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("empty", func(t *testing.T) {
		u, err := NewUploader(t.TempDir(), "/uploads", 1<<20, nil)
		require.NoError(t, err)
		_, err = u.Save(ctx, "empty.png", bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("too large leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		data := pngBytes(t)
		u, err := NewUploader(dir, "/uploads", int64(len(data)-1), nil)
		require.NoError(t, err)

		_, err = u.Save(ctx, "big.png", bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrTooLarge)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		u, err := NewUploader(t.TempDir(), "/uploads", 1<<20, nil)
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = u.Save(cctx, "a.png", bytes.NewReader(pngBytes(t)))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
