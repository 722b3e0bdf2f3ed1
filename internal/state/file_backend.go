package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores each document as <dir>/<doc>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a filesystem-backed document store. The
// directory is created lazily on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the absolute path of a document file.
func (b *FileBackend) Path(doc Document) string {
	return filepath.Join(b.dir, string(doc)+".json")
}

// Read loads a document body.
func (b *FileBackend) Read(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path(doc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", doc, err)
	}
	return data, nil
}

// Write replaces a document body via temp file + rename so readers never
// observe a half-written file.
func (b *FileBackend) Write(ctx context.Context, doc Document, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, "."+string(doc)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", doc, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", doc, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", doc, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", doc, err)
	}
	if err := os.Rename(tmpName, b.Path(doc)); err != nil {
		return fmt.Errorf("committing %s: %w", doc, err)
	}
	return nil
}

// Purge removes every document file. Unrelated files in the directory
// (config.yaml, a sqlite database) are left alone.
func (b *FileBackend) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, doc := range Documents {
		if err := os.Remove(b.Path(doc)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", doc, err)
		}
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error { return nil }
