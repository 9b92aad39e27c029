package domain

type (
	Email    = string
	Password = string
	UserId   = string

	EventName = string
	ImageId   = string
	NoticeId  = string
)

// Blob namespaces. A stored path always starts with one of them and maps 1:1
// to the static URL the file is served under.
const (
	UploadsDir = "uploads"
	NoticesDir = "notice_files"
)

// PlaceholderPath marks the Image record that keeps an empty event visible.
// It has no backing blob.
const PlaceholderPath = "init"
