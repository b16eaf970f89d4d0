// Package filesystem provides the local blob backend for the photo gateway.
// Writes are atomic (temp file plus rename), etags are SHA256 of content,
// and all operations are sandboxed under an os.Root so a storage key can
// never escape the configured directory.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/maysssss/photoapi"
)

// Store provides file system blob operations.
type Store struct {
	root *os.Root
}

// NewStore creates a Store rooted at the given directory. The root provides
// sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a blob for reading. Returns photoapi.ErrNotFound if the key
// does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, photoapi.ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically stores content at key using a temp file and rename,
// creating intermediate directories as needed. The returned SaveResult
// carries the byte count and SHA256 etag. Respects context cancellation
// mid-copy.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (photoapi.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return photoapi.SaveResult{}, ctxErr
	}

	tmpName := fmt.Sprintf(".t%s", uuid.New().String())
	t, createErr := s.root.Create(tmpName)
	if createErr != nil {
		return photoapi.SaveResult{}, fmt.Errorf("create temp file: %w", createErr)
	}

	committed := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close temp file", "err", closeErr)
		}
		if !committed {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove temp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(h, t), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return photoapi.SaveResult{}, fmt.Errorf("copy blob contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return photoapi.SaveResult{}, fmt.Errorf("sync blob: %w", err)
	}

	if dir := filepath.Dir(key); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return photoapi.SaveResult{}, fmt.Errorf("create blob directories: %w", err)
		}
	}

	if err := s.root.Rename(tmpName, key); err != nil {
		return photoapi.SaveResult{}, fmt.Errorf("rename blob into place: %w", err)
	}

	committed = true
	return photoapi.SaveResult{
		BytesWritten: written,
		Etag:         hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Delete removes a blob. Returns photoapi.ErrNotFound if the key does not
// exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return photoapi.ErrNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// List walks the storage root and returns every blob with its size, SHA256
// etag, and extension-detected content type. Intended for metadata rebuilds.
func (s *Store) List(ctx context.Context) ([]photoapi.ObjectEntry, error) {
	var entries []photoapi.ObjectEntry

	err := fs.WalkDir(s.root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		etag, err := s.hashFile(path)
		if err != nil {
			return err
		}

		entries = append(entries, photoapi.ObjectEntry{
			Key:         path,
			Size:        info.Size(),
			ETag:        etag,
			ContentType: detectContentType(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	return entries, nil
}

func (s *Store) hashFile(path string) (string, error) {
	f, err := s.root.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close blob", "path", path, "err", closeErr)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func detectContentType(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
