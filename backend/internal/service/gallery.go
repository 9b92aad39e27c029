package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/eventboard/backend/internal/utils"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
)

type GalleryService interface {
	ListEvents(ctx context.Context) ([]domain.EventName, error)
	ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error)
	CreateEvent(ctx context.Context, event domain.EventName) error
	UploadImages(ctx context.Context, event domain.EventName, files []*domain.PendingFile) (int, error)
	DeleteImage(ctx context.Context, id domain.ImageId, path string) error
	SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error
	RenameEvent(ctx context.Context, oldName, newName domain.EventName) error
	DeleteEvent(ctx context.Context, event domain.EventName) error
	PublicEventSummary(ctx context.Context) ([]domain.EventSummary, error)
	EventStats(ctx context.Context) ([]domain.EventStats, error)
}

type GalleryStorage interface {
	ListEvents(ctx context.Context) ([]domain.EventName, error)
	ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error)
	CreateEvent(ctx context.Context, placeholder domain.Image) error
	SaveImage(ctx context.Context, img domain.Image) error
	DeleteImage(ctx context.Context, id domain.ImageId) (domain.Image, error)
	ImagePathInUse(ctx context.Context, path string) (bool, error)
	SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error
	RenameEvent(ctx context.Context, oldName, newName domain.EventName) error
	DeleteEvent(ctx context.Context, event domain.EventName) (int64, error)
	EventSummaries(ctx context.Context) ([]domain.EventSummary, error)
	EventStats(ctx context.Context) ([]domain.EventStats, error)
}

type EventValidator interface {
	Name(name domain.EventName) error
}

// Gallery keeps image records and event directories in step. Mutations of
// one event are serialized inside the process.
type Gallery struct {
	storage   GalleryStorage
	blobs     BlobStorage
	validator EventValidator
	locks     *keyedMutex
	now       func() time.Time

	// held exclusively while a rename moves files, shared by HoldRelocations
	relocating sync.RWMutex
}

func NewGallery(storage GalleryStorage, blobs BlobStorage, validator EventValidator) *Gallery {
	return &Gallery{
		storage:   storage,
		blobs:     blobs,
		validator: validator,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

func (g *Gallery) ListEvents(ctx context.Context) ([]domain.EventName, error) {
	events, err := g.storage.ListEvents(ctx)
	if err != nil {
		return nil, storageErr("Failed to list events", err)
	}
	return events, nil
}

// ListImages includes the placeholder record; clients filter it out.
func (g *Gallery) ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error) {
	if err := g.validator.Name(event); err != nil {
		return nil, err
	}
	images, err := g.storage.ListImages(ctx, event)
	if err != nil {
		return nil, storageErr("Failed to list images", err)
	}
	return images, nil
}

func (g *Gallery) CreateEvent(ctx context.Context, event domain.EventName) error {
	if err := g.validator.Name(event); err != nil {
		return err
	}
	defer g.locks.Lock(event)()

	placeholder := domain.Image{
		Id:         uuid.NewString(),
		Event:      event,
		Filename:   domain.PlaceholderPath,
		Path:       domain.PlaceholderPath,
		UploadedAt: g.now().UTC(),
	}
	if err := g.storage.CreateEvent(ctx, placeholder); err != nil {
		return storageErr("Failed to create event", err)
	}
	logger.Log.Info("event created", "event", event)
	return nil
}

// UploadImages stores each file and then its record. It is not atomic: on
// failure the files stored before stay, only the pair that failed is undone.
// Returns how many images were stored.
func (g *Gallery) UploadImages(ctx context.Context, event domain.EventName, files []*domain.PendingFile) (int, error) {
	if err := g.validator.Name(event); err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, errors.Validation("No images uploaded")
	}
	defer g.locks.Lock(event)()

	dir := domain.EventDir(event)
	stored := 0
	for _, file := range files {
		path, err := g.blobs.SaveFile(ctx, dir, file.Filename, file.Data)
		if err != nil {
			logger.Log.Error("failed to store image", "event", event, "filename", file.Filename, "error", err)
			return stored, storageErr("Failed to store image "+file.Filename, err)
		}

		img := domain.Image{
			Id:         uuid.NewString(),
			Event:      event,
			Filename:   file.Filename,
			Path:       path,
			UploadedAt: g.now().UTC(),
		}
		if err := g.storage.SaveImage(ctx, img); err != nil {
			if delErr := g.blobs.DeleteFile(ctx, path); delErr != nil {
				logger.Log.Error("failed to remove blob after insert failure", "path", path, "error", delErr)
			}
			return stored, storageErr("Failed to save image "+file.Filename, err)
		}
		stored++
	}

	logger.Log.Info("images uploaded", "event", event, "count", stored)
	return stored, nil
}

// DeleteImage removes the record, then its file. The stored path of the record
// wins over the client-supplied one; the latter is only used when the record
// is already gone and no other record points at it. Failing to delete the
// file is logged, not reported.
func (g *Gallery) DeleteImage(ctx context.Context, id domain.ImageId, path string) error {
	if id == "" {
		return errors.Validation("Image id is required")
	}

	var clientPath string
	if path != "" && path != domain.PlaceholderPath {
		cleaned, err := utils.CleanBlobPath(path)
		if err != nil {
			return err
		}
		if !utils.InNamespace(cleaned, domain.UploadsDir) {
			return errors.Validation("Path must point to an uploaded image")
		}
		clientPath = cleaned
	}

	target := clientPath
	img, err := g.storage.DeleteImage(ctx, id)
	switch {
	case err == nil:
		target = img.Path
	case errors.IsNotFound(err):
		logger.Log.Debug("image record already gone", "id", id)
		if target == "" {
			return nil
		}
		inUse, err := g.storage.ImagePathInUse(ctx, target)
		if err != nil {
			return storageErr("Failed to check image path", err)
		}
		if inUse {
			logger.Log.Warn("client path belongs to another image, keeping file", "id", id, "path", target)
			return nil
		}
	default:
		return storageErr("Failed to delete image", err)
	}

	if target == "" || target == domain.PlaceholderPath {
		return nil
	}
	if err := g.blobs.DeleteFile(ctx, target); err != nil {
		logger.Log.Error("failed to delete image file", "id", id, "path", target, "error", err)
	}
	return nil
}

// SetCover marks id as the only cover of event.
func (g *Gallery) SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error {
	if err := g.validator.Name(event); err != nil {
		return err
	}
	if id == "" {
		return errors.Validation("Image id is required")
	}
	defer g.locks.Lock(event)()

	if err := g.storage.SetCover(ctx, event, id); err != nil {
		return storageErr("Failed to set cover", err)
	}
	return nil
}

// RenameEvent renames the records first and the directory second. When the
// directory move fails the record rename is reverted.
func (g *Gallery) RenameEvent(ctx context.Context, oldName, newName domain.EventName) error {
	if err := g.validator.Name(oldName); err != nil {
		return err
	}
	if err := g.validator.Name(newName); err != nil {
		return err
	}
	if oldName == newName {
		return errors.Validation("New event name must differ from the old one")
	}
	defer g.locks.Lock(oldName, newName)()
	g.relocating.Lock()
	defer g.relocating.Unlock()

	if err := g.storage.RenameEvent(ctx, oldName, newName); err != nil {
		return storageErr("Failed to rename event", err)
	}

	if err := g.blobs.RenameDir(ctx, domain.EventDir(oldName), domain.EventDir(newName)); err != nil {
		logger.Log.Error("failed to rename event directory, reverting records",
			"old", oldName, "new", newName, "error", err)
		if revertErr := g.storage.RenameEvent(ctx, newName, oldName); revertErr != nil {
			logger.Log.Error("failed to revert event rename", "old", oldName, "new", newName, "error", revertErr)
		}
		return errors.Storage("Failed to rename event directory", err)
	}

	logger.Log.Info("event renamed", "old", oldName, "new", newName)
	return nil
}

// HoldRelocations blocks event renames until the returned func is called.
// Renames already in progress finish first.
func (g *Gallery) HoldRelocations() (release func()) {
	g.relocating.RLock()
	return g.relocating.RUnlock
}

// DeleteEvent removes all records of the event and then its directory.
// The directory is removed even when no record existed, but the call then
// reports NotFound.
func (g *Gallery) DeleteEvent(ctx context.Context, event domain.EventName) error {
	if err := g.validator.Name(event); err != nil {
		return err
	}
	defer g.locks.Lock(event)()

	deleted, err := g.storage.DeleteEvent(ctx, event)
	if err != nil {
		return storageErr("Failed to delete event", err)
	}

	if err := g.blobs.DeleteDir(ctx, domain.EventDir(event)); err != nil {
		logger.Log.Error("failed to delete event directory", "event", event, "error", err)
		return errors.Storage("Failed to delete event directory", err)
	}

	if deleted == 0 {
		return errors.NotFound("Event not found")
	}
	logger.Log.Info("event deleted", "event", event, "records", deleted)
	return nil
}

func (g *Gallery) PublicEventSummary(ctx context.Context) ([]domain.EventSummary, error) {
	summaries, err := g.storage.EventSummaries(ctx)
	if err != nil {
		return nil, storageErr("Failed to load events", err)
	}
	return summaries, nil
}

func (g *Gallery) EventStats(ctx context.Context) ([]domain.EventStats, error) {
	stats, err := g.storage.EventStats(ctx)
	if err != nil {
		return nil, storageErr("Failed to load event stats", err)
	}
	return stats, nil
}
