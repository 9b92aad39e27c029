package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/itchan-dev/eventboard/backend/internal/service"
	"github.com/itchan-dev/eventboard/backend/internal/utils"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/middleware/metrics"
)

const backendName = "fs"

// Storage keeps blobs as plain files below rootPath.
type Storage struct {
	rootPath string
}

var (
	_ service.BlobStorage   = (*Storage)(nil)
	_ service.GCBlobStorage = (*Storage)(nil)
)

func New(rootPath string) (*Storage, error) {
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// resolve maps a store-relative path to an absolute one inside rootPath.
func (s *Storage) resolve(p string) (string, string, error) {
	cleaned, err := utils.CleanBlobPath(p)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(s.rootPath, filepath.FromSlash(cleaned)), nil
}

func (s *Storage) SaveFile(ctx context.Context, dir, originalFilename string, data io.Reader) (_ string, err error) {
	defer func() { metrics.BlobOperation(backendName, "save", err) }()

	cleanDir, fullDir, err := s.resolve(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := utils.BlobName(originalFilename, time.Now())
	fullPath := filepath.Join(fullDir, name)

	// O_EXCL so a name collision never overwrites another upload
	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dst, data); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to flush file: %w", err)
	}

	return path.Join(cleanDir, name), nil
}

// Open returns an *os.File, so callers may seek.
func (s *Storage) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	_, fullPath, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, internal_errors.NotFound("File not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, internal_errors.NotFound("File not found")
	}

	return file, nil
}

func (s *Storage) DeleteFile(ctx context.Context, p string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "delete", err) }()

	_, fullPath, err := s.resolve(p)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *Storage) DeleteDir(ctx context.Context, dir string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "delete_dir", err) }()

	_, fullPath, err := s.resolve(dir)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}
	return nil
}

// Ping checks that the root directory is still there.
func (s *Storage) Ping(ctx context.Context) error {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return fmt.Errorf("blob root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob root %s is not a directory", s.rootPath)
	}
	return nil
}

func (s *Storage) RenameDir(ctx context.Context, oldDir, newDir string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "rename_dir", err) }()

	_, oldPath, err := s.resolve(oldDir)
	if err != nil {
		return err
	}
	_, newPath, err := s.resolve(newDir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	// An empty leftover directory counts as absent, as an empty prefix does in S3
	if entries, err := os.ReadDir(newPath); err == nil {
		if len(entries) > 0 {
			return fmt.Errorf("destination directory %s already exists", newDir)
		}
		if err := os.Remove(newPath); err != nil {
			return fmt.Errorf("failed to remove empty destination directory: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("destination %s is not usable: %w", newDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename directory: %w", err)
	}
	return nil
}

// WalkFiles lists every regular file under dir as store-relative paths.
// A missing dir yields an empty list.
func (s *Storage) WalkFiles(ctx context.Context, dir string) ([]string, error) {
	_, root, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.rootPath, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

func (s *Storage) GetFileModTime(ctx context.Context, p string) (time.Time, error) {
	_, fullPath, err := s.resolve(p)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.ModTime(), nil
}
