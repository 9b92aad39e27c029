package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/eventboard/shared/api"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/utils"
	"github.com/itchan-dev/eventboard/shared/validation"
)

// urlParam returns a decoded route parameter. chi matches on the raw path
// when the request carries escaped slashes, so those params come back escaped.
func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.gallery.ListEvents(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if events == nil {
		events = []domain.EventName{}
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.gallery.ListImages(r.Context(), urlParam(r, "event"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if images == nil {
		images = []domain.Image{}
	}
	utils.WriteJSON(w, http.StatusOK, images)
}

// UploadImages expects multipart fields "event" and one or more "images".
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.cfg.Public.MaxTotalUploadSize); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event := formValue(r, "event")
	pendingFiles, err := validation.ValidateImages(r.MultipartForm.File["images"], h.imageRules())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer validation.ClosePendingFiles(pendingFiles)

	uploaded, err := h.gallery.UploadImages(r.Context(), event, pendingFiles)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.UploadResponse{Msg: "Images uploaded successfully", Uploaded: uploaded})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body api.CreateEventRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.gallery.CreateEvent(r.Context(), body.Event); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusCreated, "Event created")
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.DeleteEvent(r.Context(), urlParam(r, "event")); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Event deleted")
}

func (h *Handler) RenameEvent(w http.ResponseWriter, r *http.Request) {
	var body api.RenameEventRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.gallery.RenameEvent(r.Context(), body.OldEvent, body.NewEvent); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Event renamed")
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var body api.DeleteImageRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.gallery.DeleteImage(r.Context(), body.Id, body.Path); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "deleted")
}

func (h *Handler) SetCover(w http.ResponseWriter, r *http.Request) {
	var body api.SetCoverRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.gallery.SetCover(r.Context(), body.Event, body.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Cover image updated")
}

func (h *Handler) PublicEvents(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.gallery.PublicEventSummary(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.EventSummary{}
	}
	utils.WriteJSON(w, http.StatusOK, summaries)
}

func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gallery.EventStats(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if stats == nil {
		stats = []domain.EventStats{}
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
