package domain

import "io"

// FileCommonMetadata describes an uploaded file before it reaches the blob store.
type FileCommonMetadata struct {
	Filename    string
	SizeBytes   int64
	MimeType    string
	ImageWidth  *int
	ImageHeight *int
}

// PendingFile is a validated upload whose data has not been stored yet.
type PendingFile struct {
	FileCommonMetadata
	Data io.Reader
}
