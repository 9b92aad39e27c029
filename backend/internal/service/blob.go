package service

import (
	"context"
	"io"
	"time"
)

// BlobStorage holds uploaded files. Paths are slash-separated, relative to the
// store root, and start with a namespace (domain.UploadsDir or
// domain.NoticesDir). A directory is the set of paths sharing a prefix.
type BlobStorage interface {
	// SaveFile stores data under dir with a generated collision-resistant name
	// and returns the stored path.
	SaveFile(ctx context.Context, dir, originalFilename string, data io.Reader) (string, error)

	// Open returns the content of a stored file, or a NotFound error.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// DeleteFile removes a single file. A missing file is not an error.
	DeleteFile(ctx context.Context, path string) error

	// DeleteDir removes dir recursively. A missing dir is not an error.
	DeleteDir(ctx context.Context, dir string) error

	// RenameDir moves every file under oldDir to newDir. A missing oldDir is
	// not an error; a newDir that already holds files is. An empty newDir
	// counts as missing.
	RenameDir(ctx context.Context, oldDir, newDir string) error
}

// GCBlobStorage is the part of the blob store the garbage collector needs.
type GCBlobStorage interface {
	WalkFiles(ctx context.Context, dir string) ([]string, error)
	GetFileModTime(ctx context.Context, path string) (time.Time, error)
	DeleteFile(ctx context.Context, path string) error
}
