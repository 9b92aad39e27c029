package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/errors"
)

const (
	maxEventNameLen   = 100
	maxNoticeTitleLen = 200
	maxNoticeTextLen  = 20_000
	maxShortFieldLen  = 100
	maxBlobBaseLen    = 80
)

type EventNameValidator struct{}

// Name enforces the rules that keep an event name usable as a single blob
// directory segment.
func (v *EventNameValidator) Name(name domain.EventName) error {
	if strings.TrimSpace(name) == "" {
		return errors.Validation("Event name is required")
	}
	if name != strings.TrimSpace(name) {
		return errors.Validation("Event name must not start or end with spaces")
	}
	if utf8.RuneCountInString(name) > maxEventNameLen {
		return errors.Validation("Event name is too long")
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return errors.Validation("Event name must not contain slashes")
	}
	if name == "." || name == ".." || name == domain.PlaceholderPath {
		return errors.Validation("Event name is reserved")
	}
	return nil
}

type NoticeValidator struct{}

func (v *NoticeValidator) Fields(f domain.NoticeFields) error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Description) == "" {
		return errors.Validation("Title and description are required")
	}
	if utf8.RuneCountInString(f.Title) > maxNoticeTitleLen {
		return errors.Validation("Title is too long")
	}
	if utf8.RuneCountInString(f.Description) > maxNoticeTextLen {
		return errors.Validation("Description is too long")
	}
	for _, s := range []string{f.Category, f.Priority, f.Author} {
		if utf8.RuneCountInString(s) > maxShortFieldLen {
			return errors.Validation("Category, priority and author must be short")
		}
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// BlobName builds a collision-resistant file name: a millisecond timestamp,
// a short random suffix and the sanitized original name.
func BlobName(original string, now time.Time) string {
	original = filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(original, filepath.Ext(original))

	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	if utf8.RuneCountInString(base) > maxBlobBaseLen {
		base = string([]rune(base)[:maxBlobBaseLen])
	}
	ext = unsafeNameChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}

	return fmt.Sprintf("%d-%s-%s%s", now.UnixMilli(), uuid.NewString()[:8], base, ext)
}

// CleanBlobPath normalizes a store-relative path and rejects anything that
// would leave the store root.
func CleanBlobPath(p string) (string, error) {
	if p == "" || strings.ContainsRune(p, '\x00') || strings.Contains(p, "\\") {
		return "", errors.Validation("Invalid path")
	}
	cleaned := path.Clean("/" + p)[1:]
	if cleaned == "" || cleaned == "." {
		return "", errors.Validation("Invalid path")
	}
	// A leading "/" above swallows "..", so compare against the raw input
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", errors.Validation("Invalid path")
		}
	}
	return cleaned, nil
}

// InNamespace reports whether a cleaned blob path lives under dir.
func InNamespace(p, dir string) bool {
	return strings.HasPrefix(p, dir+"/")
}
