package validation

import (
	"errors"
	"fmt"
	"net/http"

	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
)

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrInvalidMimeType is returned when an uploaded file has a disallowed MIME type
var ErrInvalidMimeType = errors.New("invalid MIME type")

// ErrInvalidExtension is returned when an uploaded file has a disallowed extension
var ErrInvalidExtension = errors.New("invalid file extension")

// ErrFileTooLarge is returned when a single file exceeds its size limit
var ErrFileTooLarge = errors.New("file too large")

// ErrTooManyAttachments is returned when too many files are uploaded
var ErrTooManyAttachments = errors.New("too many attachments")

// ErrNoFiles is returned when an upload carries no files at all
var ErrNoFiles = errors.New("no files uploaded")

// rejected wraps a sentinel into a client-facing error that keeps errors.Is working.
func rejected(status int, sentinel error, format string, args ...any) error {
	return &internal_errors.ErrorWithStatusCode{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
		Err:        sentinel,
	}
}

func badRequest(sentinel error, format string, args ...any) error {
	return rejected(http.StatusBadRequest, sentinel, format, args...)
}
