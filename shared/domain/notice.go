package domain

import "time"

const DefaultNoticePriority = "Normal"

type Notice struct {
	Id              NoticeId   `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"descriptionHtml,omitempty"`
	Category        string     `json:"category,omitempty"`
	Priority        string     `json:"priority"`
	Author          string     `json:"author,omitempty"`
	AttachmentPath  *string    `json:"attachmentPath"`
	AttachmentName  string     `json:"attachmentName,omitempty"`
	AttachmentSize  int64      `json:"attachmentSize,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

type NoticeFields struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Author      string
}

type NoticeCreationData struct {
	NoticeFields
	Attachment *PendingFile
}

type NoticeUpdateData struct {
	Id NoticeId
	NoticeFields
	Attachment       *PendingFile
	RemoveAttachment bool
}
