package domain

import (
	"path"
	"time"
)

// Image is one uploaded gallery file, or the placeholder of an empty event.
type Image struct {
	Id         ImageId   `json:"id"`
	Event      EventName `json:"event"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploadedAt"`
	IsCover    bool      `json:"isCover"`
}

func (i *Image) IsPlaceholder() bool {
	return i.Path == PlaceholderPath
}

// EventSummary is the public view of an event: cover path and number of real images.
// Cover is nil when the event holds only its placeholder.
type EventSummary struct {
	Event EventName `json:"event"`
	Cover *string   `json:"cover"`
	Count int       `json:"count"`
}

type EventStats struct {
	Event EventName `json:"event"`
	Count int       `json:"count"`
}

// EventDir returns the blob directory holding the images of an event.
func EventDir(event EventName) string {
	return path.Join(UploadsDir, event)
}
