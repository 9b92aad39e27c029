package validation

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/itchan-dev/eventboard/shared/domain"
)

// ImageRules bound a gallery upload.
type ImageRules struct {
	AllowedMimeTypes []string
	MaxFileSize      int64
	MaxFiles         int
}

// AttachmentRules bound a notice attachment. Both the extension and the MIME
// type must be allowed.
type AttachmentRules struct {
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxSize           int64
}

// ValidateImages opens and checks every uploaded gallery file. Content must
// decode as an image; the decoded format decides the MIME type, not the
// client-supplied header. Returned files hold open handles, release them with
// ClosePendingFiles.
func ValidateImages(fileHeaders []*multipart.FileHeader, rules ImageRules) ([]*domain.PendingFile, error) {
	if len(fileHeaders) == 0 {
		return nil, badRequest(ErrNoFiles, "No images uploaded")
	}
	if rules.MaxFiles > 0 && len(fileHeaders) > rules.MaxFiles {
		return nil, badRequest(ErrTooManyAttachments, "Too many images: %d (max %d)", len(fileHeaders), rules.MaxFiles)
	}

	var pendingFiles []*domain.PendingFile
	for _, fileHeader := range fileHeaders {
		if rules.MaxFileSize > 0 && fileHeader.Size > rules.MaxFileSize {
			ClosePendingFiles(pendingFiles)
			return nil, badRequest(ErrFileTooLarge, "Image %s is too large (max %.1f MB)", fileHeader.Filename, FormatSizeMB(rules.MaxFileSize))
		}

		file, err := fileHeader.Open()
		if err != nil {
			ClosePendingFiles(pendingFiles)
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		cfg, format, err := image.DecodeConfig(file)
		if err != nil {
			file.Close()
			ClosePendingFiles(pendingFiles)
			return nil, badRequest(ErrInvalidMimeType, "File %s is not a supported image", fileHeader.Filename)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			ClosePendingFiles(pendingFiles)
			return nil, fmt.Errorf("failed to rewind uploaded file: %w", err)
		}

		mimeType := "image/" + format
		if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
			file.Close()
			ClosePendingFiles(pendingFiles)
			return nil, badRequest(ErrInvalidMimeType, "Image type %s is not allowed (file: %s)", mimeType, fileHeader.Filename)
		}

		width, height := cfg.Width, cfg.Height
		pendingFiles = append(pendingFiles, &domain.PendingFile{
			FileCommonMetadata: domain.FileCommonMetadata{
				Filename:    fileHeader.Filename,
				SizeBytes:   fileHeader.Size,
				MimeType:    mimeType,
				ImageWidth:  &width,
				ImageHeight: &height,
			},
			Data: file,
		})
	}

	return pendingFiles, nil
}

// ValidateAttachment checks a single notice attachment before anything is
// written. A nil header means no attachment and yields (nil, nil).
func ValidateAttachment(fileHeader *multipart.FileHeader, rules AttachmentRules) (*domain.PendingFile, error) {
	if fileHeader == nil {
		return nil, nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if !slices.Contains(rules.AllowedExtensions, ext) {
		return nil, badRequest(ErrInvalidExtension, "File type .%s is not allowed (allowed: %s)", ext, strings.Join(rules.AllowedExtensions, ", "))
	}

	mimeType, err := DetectMimeType(fileHeader)
	if err != nil {
		return nil, badRequest(ErrInvalidMimeType, "%s", err.Error())
	}
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return nil, badRequest(ErrInvalidMimeType, "Content type %s is not allowed (file: %s)", mimeType, fileHeader.Filename)
	}

	if rules.MaxSize > 0 && fileHeader.Size > rules.MaxSize {
		return nil, badRequest(ErrFileTooLarge, "File too large (max %.1f MB)", FormatSizeMB(rules.MaxSize))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	width, height := ExtractImageDimensions(file, mimeType)

	return &domain.PendingFile{
		FileCommonMetadata: domain.FileCommonMetadata{
			Filename:    fileHeader.Filename,
			SizeBytes:   fileHeader.Size,
			MimeType:    mimeType,
			ImageWidth:  width,
			ImageHeight: height,
		},
		Data: file,
	}, nil
}

// DetectMimeType trusts the part's Content-Type unless it is missing or
// generic, then falls back to the extension.
func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := filepath.Ext(fileHeader.Filename)
		if detectedType := mime.TypeByExtension(strings.ToLower(ext)); detectedType != "" {
			mimeType = detectedType
		}
	}

	if mimeType == "" {
		return "", fmt.Errorf("could not detect MIME type for file: %s", fileHeader.Filename)
	}

	// Drop parameters such as "; charset=utf-8"
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	return mimeType, nil
}

func ExtractImageDimensions(file multipart.File, mimeType string) (*int, *int) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}

	img, _, err := image.DecodeConfig(file)
	file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, nil
	}

	width, height := img.Width, img.Height
	return &width, &height
}

// ClosePendingFiles releases the handles opened during validation.
func ClosePendingFiles(files []*domain.PendingFile) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if c, ok := f.Data.(io.Closer); ok {
			c.Close()
		}
	}
}
