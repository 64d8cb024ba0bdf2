package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// FileStore writes rendered images to a publicly served directory as qr_code_<id>.png.
type FileStore struct {
	dir          string
	publicPrefix string
	newVersion   func() string
}

// NewFileStore creates a file-backed image store. publicPrefix is the URL the directory is
// served under; newVersion produces the cache-busting token appended to each reference.
func NewFileStore(dir, publicPrefix string, newVersion func() string) *FileStore {
	return &FileStore{
		dir:          dir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		newVersion:   newVersion,
	}
}

// FileName returns the image file name for a record.
func FileName(id qrcode.ID) string {
	return fmt.Sprintf("qr_code_%s.png", id)
}

// Save replaces the image for id and returns its public reference. The file is written to a
// temporary name first, so readers never see a partial image.
func (s *FileStore) Save(ctx context.Context, id qrcode.ID, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".qr_code_*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(png); err != nil {
		tmp.Close()

		return "", fmt.Errorf("write image: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}

	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod image: %w", err)
	}

	name := FileName(id)
	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("move image: %w", err)
	}

	return fmt.Sprintf("%s/%s?v=%s", s.publicPrefix, name, s.newVersion()), nil
}

var _ qrcode.ImageStore = (*FileStore)(nil)
