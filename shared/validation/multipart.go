package validation

import (
	"net/http"
)

// ValidateAndParseMultipart caps the body at maxSize and parses the multipart
// form. Exceeding the cap aborts reading, so clients that ignore the limit see
// a connection reset instead of a response.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return rejected(http.StatusRequestEntityTooLarge, ErrPayloadTooLarge,
			"Request too large or malformed (max %.1f MB)", FormatSizeMB(maxSize))
	}

	return nil
}

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
// It adds a buffer (typically 1 MiB) for form fields and multipart overhead.
func CalculateMaxRequestSize(maxAttachmentSize int64, bufferSize int64) int64 {
	return maxAttachmentSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
