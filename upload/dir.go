package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Azhovan/formrig"
)

// Dir copies files into a local directory.
type Dir struct {
	root string
}

// NewDir creates a Dir uploader, creating root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Upload copies the file to root/key and returns the destination path.
// An existing file with the same key is replaced.
func (d *Dir) Upload(ctx context.Context, key string, f formrig.FileRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	dest := filepath.Join(d.root, filepath.Base(key))
	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("store %s: %w", f.Name, err)
	}

	slog.Debug("file stored", "key", key, "path", dest)
	return dest, nil
}
