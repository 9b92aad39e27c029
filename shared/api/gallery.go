package api

type CreateEventRequest struct {
	Event string `json:"event" validate:"required"`
}

type RenameEventRequest struct {
	OldEvent string `json:"oldEvent" validate:"required"`
	NewEvent string `json:"newEvent" validate:"required"`
}

type DeleteImageRequest struct {
	Id   string `json:"id" validate:"required"`
	Path string `json:"path"`
}

type SetCoverRequest struct {
	Event string `json:"event" validate:"required"`
	Id    string `json:"id" validate:"required"`
}

type UploadResponse struct {
	Msg      string `json:"msg"`
	Uploaded int    `json:"uploaded"`
}
