package handler

import (
	"net/http"

	"github.com/itchan-dev/eventboard/shared/api"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/utils"
	"github.com/itchan-dev/eventboard/shared/validation"
)

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.notice.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if notices == nil {
		notices = []domain.Notice{}
	}
	utils.WriteJSON(w, http.StatusOK, notices)
}

// parseNoticeForm reads the text fields and the optional "file" part. The
// returned attachment, if any, must be closed by the caller.
func (h *Handler) parseNoticeForm(w http.ResponseWriter, r *http.Request) (domain.NoticeFields, *domain.PendingFile, error) {
	if err := parseMultipart(w, r, h.cfg.Public.MaxNoticeAttachmentSize); err != nil {
		return domain.NoticeFields{}, nil, err
	}

	fields := domain.NoticeFields{
		Title:       formValue(r, "title"),
		Description: r.FormValue("description"),
		Category:    formValue(r, "category"),
		Priority:    formValue(r, "priority"),
		Author:      formValue(r, "author"),
	}

	var attachment *domain.PendingFile
	// browsers send an empty part when no file was picked
	if headers := r.MultipartForm.File["file"]; len(headers) > 0 && headers[0].Filename != "" {
		var err error
		attachment, err = validation.ValidateAttachment(headers[0], h.attachmentRules())
		if err != nil {
			return domain.NoticeFields{}, nil, err
		}
	}
	return fields, attachment, nil
}

func closeAttachment(file *domain.PendingFile) {
	if file != nil {
		validation.ClosePendingFiles([]*domain.PendingFile{file})
	}
}

func (h *Handler) AddNotice(w http.ResponseWriter, r *http.Request) {
	fields, attachment, err := h.parseNoticeForm(w, r)
	if err != nil {
		writeNoticeError(w, err)
		return
	}
	defer closeAttachment(attachment)

	notice, err := h.notice.Add(r.Context(), domain.NoticeCreationData{NoticeFields: fields, Attachment: attachment})
	if err != nil {
		writeNoticeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.NoticeResponse{Msg: "Notice added successfully", Success: true, Notice: &notice})
}

func (h *Handler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	fields, attachment, err := h.parseNoticeForm(w, r)
	if err != nil {
		writeNoticeError(w, err)
		return
	}
	defer closeAttachment(attachment)

	data := domain.NoticeUpdateData{
		Id:               urlParam(r, "id"),
		NoticeFields:     fields,
		Attachment:       attachment,
		RemoveAttachment: formBool(r, "removeAttachment"),
	}
	notice, err := h.notice.Update(r.Context(), data)
	if err != nil {
		writeNoticeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NoticeResponse{Msg: "Notice updated successfully", Success: true, Notice: &notice})
}

func (h *Handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.notice.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeNoticeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NoticeResponse{Msg: "Notice deleted", Success: true})
}
