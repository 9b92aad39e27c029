package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
)

type NoticeService interface {
	List(ctx context.Context) ([]domain.Notice, error)
	Add(ctx context.Context, data domain.NoticeCreationData) (domain.Notice, error)
	Update(ctx context.Context, data domain.NoticeUpdateData) (domain.Notice, error)
	Delete(ctx context.Context, id domain.NoticeId) error
}

type NoticeStorage interface {
	ListNotices(ctx context.Context) ([]domain.Notice, error)
	Notice(ctx context.Context, id domain.NoticeId) (domain.Notice, error)
	SaveNotice(ctx context.Context, n domain.Notice) error
	UpdateNotice(ctx context.Context, n domain.Notice) error
	DeleteNotice(ctx context.Context, id domain.NoticeId) error
}

type NoticeValidator interface {
	Fields(f domain.NoticeFields) error
}

type MarkdownRenderer interface {
	Render(text string) string
}

// Notices owns the rule that a notice's attachment path always names a stored
// blob: blobs written for a failed record write are removed again.
type Notices struct {
	storage   NoticeStorage
	blobs     BlobStorage
	validator NoticeValidator
	renderer  MarkdownRenderer
	locks     *keyedMutex
	now       func() time.Time
}

func NewNotices(storage NoticeStorage, blobs BlobStorage, validator NoticeValidator, renderer MarkdownRenderer) *Notices {
	return &Notices{
		storage:   storage,
		blobs:     blobs,
		validator: validator,
		renderer:  renderer,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// List returns notices newest first with rendered descriptions.
func (n *Notices) List(ctx context.Context) ([]domain.Notice, error) {
	notices, err := n.storage.ListNotices(ctx)
	if err != nil {
		return nil, storageErr("Failed to list notices", err)
	}
	for i := range notices {
		notices[i].DescriptionHTML = n.renderer.Render(notices[i].Description)
	}
	return notices, nil
}

func (n *Notices) Add(ctx context.Context, data domain.NoticeCreationData) (domain.Notice, error) {
	fields := normalizeFields(data.NoticeFields)
	if err := n.validator.Fields(fields); err != nil {
		return domain.Notice{}, err
	}

	notice := domain.Notice{
		Id:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Category:    fields.Category,
		Priority:    fields.Priority,
		Author:      fields.Author,
		CreatedAt:   n.now().UTC(),
	}

	if data.Attachment != nil {
		if err := n.storeAttachment(ctx, &notice, data.Attachment); err != nil {
			return domain.Notice{}, err
		}
	}

	if err := n.storage.SaveNotice(ctx, notice); err != nil {
		n.removeBlob(ctx, notice.AttachmentPath, "compensating")
		return domain.Notice{}, storageErr("Failed to save notice", err)
	}

	logger.Log.Info("notice added", "id", notice.Id, "attachment", notice.AttachmentPath != nil)
	notice.DescriptionHTML = n.renderer.Render(notice.Description)
	return notice, nil
}

// Update replaces the fields of a notice. A new attachment replaces the old
// one; RemoveAttachment drops it. The old blob is deleted only after the
// record update succeeded.
func (n *Notices) Update(ctx context.Context, data domain.NoticeUpdateData) (domain.Notice, error) {
	if data.Id == "" {
		return domain.Notice{}, errors.Validation("Notice id is required")
	}
	fields := normalizeFields(data.NoticeFields)
	if err := n.validator.Fields(fields); err != nil {
		return domain.Notice{}, err
	}
	defer n.locks.Lock(data.Id)()

	existing, err := n.storage.Notice(ctx, data.Id)
	if err != nil {
		return domain.Notice{}, storageErr("Failed to load notice", err)
	}

	updated := existing
	updated.Title = fields.Title
	updated.Description = fields.Description
	updated.Category = fields.Category
	updated.Priority = fields.Priority
	updated.Author = fields.Author
	now := n.now().UTC()
	updated.UpdatedAt = &now

	var oldBlob *string
	switch {
	case data.Attachment != nil:
		if err := n.storeAttachment(ctx, &updated, data.Attachment); err != nil {
			return domain.Notice{}, err
		}
		oldBlob = existing.AttachmentPath
	case data.RemoveAttachment:
		updated.AttachmentPath = nil
		updated.AttachmentName = ""
		updated.AttachmentSize = 0
		oldBlob = existing.AttachmentPath
	}

	if err := n.storage.UpdateNotice(ctx, updated); err != nil {
		if data.Attachment != nil {
			n.removeBlob(ctx, updated.AttachmentPath, "compensating")
		}
		return domain.Notice{}, storageErr("Failed to update notice", err)
	}

	n.removeBlob(ctx, oldBlob, "replaced")
	logger.Log.Info("notice updated", "id", updated.Id)
	updated.DescriptionHTML = n.renderer.Render(updated.Description)
	return updated, nil
}

// Delete removes the record and then its attachment. A missing attachment
// file is not an error; a missing record is NotFound.
func (n *Notices) Delete(ctx context.Context, id domain.NoticeId) error {
	if id == "" {
		return errors.Validation("Notice id is required")
	}
	defer n.locks.Lock(id)()

	existing, err := n.storage.Notice(ctx, id)
	if err != nil {
		return storageErr("Failed to load notice", err)
	}
	if err := n.storage.DeleteNotice(ctx, id); err != nil {
		return storageErr("Failed to delete notice", err)
	}

	n.removeBlob(ctx, existing.AttachmentPath, "deleted")
	logger.Log.Info("notice deleted", "id", id)
	return nil
}

func (n *Notices) storeAttachment(ctx context.Context, notice *domain.Notice, file *domain.PendingFile) error {
	path, err := n.blobs.SaveFile(ctx, domain.NoticesDir, file.Filename, file.Data)
	if err != nil {
		logger.Log.Error("failed to store notice attachment", "filename", file.Filename, "error", err)
		return storageErr("Failed to store attachment", err)
	}
	notice.AttachmentPath = &path
	notice.AttachmentName = file.Filename
	notice.AttachmentSize = file.SizeBytes
	return nil
}

func (n *Notices) removeBlob(ctx context.Context, path *string, reason string) {
	if path == nil || *path == "" {
		return
	}
	if err := n.blobs.DeleteFile(ctx, *path); err != nil {
		logger.Log.Error("failed to delete notice attachment", "path", *path, "reason", reason, "error", err)
	}
}

func normalizeFields(f domain.NoticeFields) domain.NoticeFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.Priority = strings.TrimSpace(f.Priority)
	f.Author = strings.TrimSpace(f.Author)
	if f.Priority == "" {
		f.Priority = domain.DefaultNoticePriority
	}
	return f
}
