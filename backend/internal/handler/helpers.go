package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/itchan-dev/eventboard/shared/api"
	"github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/itchan-dev/eventboard/shared/utils"
	"github.com/itchan-dev/eventboard/shared/validation"
)

// multipartOverhead leaves room for text fields and part headers.
const multipartOverhead int64 = 1 << 20

// parseMultipart caps the body at payloadLimit plus overhead and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, payloadLimit int64) error {
	maxRequestSize := validation.CalculateMaxRequestSize(payloadLimit, multipartOverhead)
	return validation.ValidateAndParseMultipart(r, w, maxRequestSize)
}

// formValue returns a trimmed text field of an already parsed multipart form.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// formBool accepts the usual checkbox spellings. Anything unparsable is false.
func formBool(r *http.Request, name string) bool {
	v := formValue(r, name)
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// writeNoticeError answers notice endpoints with {msg, success:false}. Like
// utils.WriteErrorAndStatusCode it hides errors that carry no status code.
func writeNoticeError(w http.ResponseWriter, err error) {
	var e *errors.ErrorWithStatusCode
	if !stderrors.As(err, &e) {
		logger.Log.Error("unexpected notice error", "error", err)
		utils.WriteJSON(w, http.StatusInternalServerError, api.NoticeResponse{Msg: "Error processing notice"})
		return
	}
	if e.StatusCode >= http.StatusInternalServerError {
		logger.Log.Error("notice request failed", "msg", e.Message, "error", e.Err)
	}
	utils.WriteJSON(w, e.StatusCode, api.NoticeResponse{Msg: e.Message})
}
