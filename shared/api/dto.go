package api

// MessageResponse is the generic reply of mutating endpoints and of every error.
type MessageResponse struct {
	Msg string `json:"msg"`
}
