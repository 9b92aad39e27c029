package api

import "github.com/itchan-dev/eventboard/shared/domain"

type NoticeResponse struct {
	Msg     string         `json:"msg"`
	Success bool           `json:"success"`
	Notice  *domain.Notice `json:"notice,omitempty"`
}
