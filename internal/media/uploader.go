// Package media stores uploaded lodge images on local disk.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"yatrinivas/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("only JPEG, PNG, WebP and GIF images are accepted")
	ErrEmpty           = errors.New("file is empty")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// sniffLen is how much of the upload is inspected to detect its type.
const sniffLen = 3072

// Uploader writes files under dir and returns their public URL.
type Uploader struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zerolog.Logger
}

func NewUploader(dir, baseURL string, maxBytes int64, logger *zerolog.Logger) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Uploader{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

func (u *Uploader) Dir() string { return u.dir }

// MaxBytes is the size limit of a single file; zero means unlimited.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Save stores the content of r under a random name and returns its URL.
// The original filename is only logged; the stored extension follows the detected type.
func (u *Uploader) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", ErrEmpty
	}

	ext, ok := allowedTypes[mimetype.Detect(head).String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(u.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if u.maxBytes > 0 {
		src = io.LimitReader(src, u.maxBytes+1)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && u.maxBytes > 0 && written > u.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	metrics.IncUpload()
	u.logger.Info().Str("original", filename).Str("stored", name).Int64("bytes", written).Msg("file uploaded")
	return u.baseURL + "/" + name, nil
}
