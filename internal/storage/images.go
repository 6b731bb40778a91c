package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyImage = errors.New("empty image")

// ImageStore keeps captured photos and hands back a stable reference.
type ImageStore interface {
	Persist(ctx context.Context, image []byte) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
	// Exists reports whether ref names an image this store persisted.
	Exists(ctx context.Context, ref string) (bool, error)
}

// FileImageStore writes images into one directory. References are absolute paths.
type FileImageStore struct {
	Dir string
	Now func() time.Time
}

func NewFileImageStore(dir string) (*FileImageStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory '%s': %w", abs, err)
	}
	return &FileImageStore{Dir: abs, Now: time.Now}, nil
}

func (s *FileImageStore) Persist(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("plant_%d_%s%s",
		s.Now().UnixMilli(),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		imageExtension(image))
	path := filepath.Join(s.Dir, name)

	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func (s *FileImageStore) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := s.resolve(ref)
	if !ok {
		return nil, fmt.Errorf("image reference outside store: %s", ref)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (s *FileImageStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, ok := s.resolve(ref)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat image: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// resolve maps ref to a file directly inside Dir.
func (s *FileImageStore) resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	path := filepath.Clean(ref)
	if filepath.Dir(path) != s.Dir {
		return "", false
	}
	return path, true
}

func imageExtension(image []byte) string {
	switch http.DetectContentType(image) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
