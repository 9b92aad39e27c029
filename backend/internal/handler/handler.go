package handler

import (
	"context"

	"github.com/itchan-dev/eventboard/backend/internal/service"
	"github.com/itchan-dev/eventboard/shared/config"
	"github.com/itchan-dev/eventboard/shared/validation"
)

// HealthChecker reports whether a backing store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth    service.AuthService
	gallery service.GalleryService
	notice  service.NoticeService
	blobs   service.BlobStorage
	health  HealthChecker
	cfg     *config.Config
}

func New(auth service.AuthService, gallery service.GalleryService, notice service.NoticeService, blobs service.BlobStorage, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		auth:    auth,
		gallery: gallery,
		notice:  notice,
		blobs:   blobs,
		health:  health,
		cfg:     cfg,
	}
}

func (h *Handler) imageRules() validation.ImageRules {
	return validation.ImageRules{
		AllowedMimeTypes: h.cfg.Public.AllowedImageMimeTypes,
		MaxFileSize:      h.cfg.Public.MaxImageSizeBytes,
		MaxFiles:         h.cfg.Public.MaxUploadImages,
	}
}

func (h *Handler) attachmentRules() validation.AttachmentRules {
	return validation.AttachmentRules{
		AllowedExtensions: h.cfg.Public.NoticeAllowedExtensions,
		AllowedMimeTypes:  h.cfg.Public.NoticeAllowedMimeTypes,
		MaxSize:           h.cfg.Public.MaxNoticeAttachmentSize,
	}
}
