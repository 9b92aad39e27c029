package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itchan-dev/eventboard/backend/internal/utils"
	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
)

var errInjected = errors.New("injected failure")

// memBlobs is an in-memory BlobStorage. The *Err fields inject failures.
type memBlobs struct {
	mu           sync.Mutex
	files        map[string][]byte
	saveErr      error
	deleteErr    error
	deleteDirErr error
	renameErr    error
	deleted      []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}}
}

func (m *memBlobs) SaveFile(ctx context.Context, dir, originalFilename string, data io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	p := path.Join(dir, utils.BlobName(originalFilename, time.Now()))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = content
	return p, nil
}

func (m *memBlobs) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	if !ok {
		return nil, internal_errors.NotFound("File not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) DeleteFile(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, p)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, p)
	return nil
}

func (m *memBlobs) DeleteDir(ctx context.Context, dir string) error {
	if m.deleteDirErr != nil {
		return m.deleteDirErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.files {
		if strings.HasPrefix(p, dir+"/") {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *memBlobs) RenameDir(ctx context.Context, oldDir, newDir string) error {
	if m.renameErr != nil {
		return m.renameErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, data := range m.files {
		if strings.HasPrefix(p, oldDir+"/") {
			delete(m.files, p)
			m.files[newDir+strings.TrimPrefix(p, oldDir)] = data
		}
	}
	return nil
}

// agedBlobs exposes memBlobs to the garbage collector with every file an hour
// old.
type agedBlobs struct {
	*memBlobs
}

func (a agedBlobs) WalkFiles(ctx context.Context, dir string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var paths []string
	for p := range a.files {
		if strings.HasPrefix(p, dir+"/") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (a agedBlobs) GetFileModTime(ctx context.Context, p string) (time.Time, error) {
	if !a.has(p) {
		return time.Time{}, internal_errors.NotFound("File not found")
	}
	return time.Now().Add(-time.Hour), nil
}

func (m *memBlobs) has(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok
}

func (m *memBlobs) count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// memGallery is an in-memory GalleryStorage with the same contract as the
// Postgres one.
type memGallery struct {
	mu        sync.Mutex
	images    []domain.Image
	saveErr   error
	renameErr error
	renames   int
}

func (m *memGallery) ListEvents(ctx context.Context) ([]domain.EventName, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	events := []domain.EventName{}
	for _, img := range m.images {
		if !seen[img.Event] {
			seen[img.Event] = true
			events = append(events, img.Event)
		}
	}
	sort.Strings(events)
	return events, nil
}

func (m *memGallery) ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	images := []domain.Image{}
	for _, img := range m.images {
		if img.Event == event {
			images = append(images, img)
		}
	}
	return images, nil
}

func (m *memGallery) existsLocked(event domain.EventName) bool {
	for _, img := range m.images {
		if img.Event == event {
			return true
		}
	}
	return false
}

func (m *memGallery) CreateEvent(ctx context.Context, placeholder domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsLocked(placeholder.Event) {
		return internal_errors.Conflict("Event already exists")
	}
	m.images = append(m.images, placeholder)
	return nil
}

func (m *memGallery) SaveImage(ctx context.Context, img domain.Image) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, img)
	return nil
}

func (m *memGallery) DeleteImage(ctx context.Context, id domain.ImageId) (domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.images {
		if img.Id == id {
			m.images = append(m.images[:i], m.images[i+1:]...)
			return img, nil
		}
	}
	return domain.Image{}, internal_errors.NotFound("Image not found")
}

func (m *memGallery) ImagePathInUse(ctx context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.images {
		if img.Path == p {
			return true, nil
		}
	}
	return false, nil
}

// paths returns the referenced blob paths the way GetAllFilePaths does.
func (m *memGallery) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for _, img := range m.images {
		if !img.IsPlaceholder() {
			paths = append(paths, img.Path)
		}
	}
	return paths
}

func (m *memGallery) SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := -1
	for i, img := range m.images {
		if img.Id == id && img.Event == event && !img.IsPlaceholder() {
			target = i
		}
	}
	if target < 0 {
		return internal_errors.NotFound("Image not found in event")
	}
	for i := range m.images {
		if m.images[i].Event == event {
			m.images[i].IsCover = i == target
		}
	}
	return nil
}

func (m *memGallery) RenameEvent(ctx context.Context, oldName, newName domain.EventName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renames++
	if m.renameErr != nil {
		return m.renameErr
	}
	if m.existsLocked(newName) {
		return internal_errors.Conflict("Event with the new name already exists")
	}
	if !m.existsLocked(oldName) {
		return internal_errors.NotFound("Event not found")
	}
	oldPrefix, newPrefix := domain.EventDir(oldName)+"/", domain.EventDir(newName)+"/"
	for i := range m.images {
		if m.images[i].Event == oldName {
			m.images[i].Event = newName
			if strings.HasPrefix(m.images[i].Path, oldPrefix) {
				m.images[i].Path = newPrefix + strings.TrimPrefix(m.images[i].Path, oldPrefix)
			}
		}
	}
	return nil
}

func (m *memGallery) DeleteEvent(ctx context.Context, event domain.EventName) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.images[:0]
	var n int64
	for _, img := range m.images {
		if img.Event == event {
			n++
			continue
		}
		kept = append(kept, img)
	}
	m.images = kept
	return n, nil
}

func (m *memGallery) EventSummaries(ctx context.Context) ([]domain.EventSummary, error) {
	events, _ := m.ListEvents(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := []domain.EventSummary{}
	for _, event := range events {
		s := domain.EventSummary{Event: event}
		for _, img := range m.images {
			if img.Event != event || img.IsPlaceholder() {
				continue
			}
			s.Count++
			// first upload unless a flagged cover shows up
			if s.Cover == nil || img.IsCover {
				p := img.Path
				s.Cover = &p
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (m *memGallery) EventStats(ctx context.Context) ([]domain.EventStats, error) {
	summaries, _ := m.EventSummaries(ctx)
	stats := make([]domain.EventStats, 0, len(summaries))
	for _, s := range summaries {
		stats = append(stats, domain.EventStats{Event: s.Event, Count: s.Count})
	}
	return stats, nil
}

func (m *memGallery) covers(event domain.EventName) []domain.ImageId {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []domain.ImageId
	for _, img := range m.images {
		if img.Event == event && img.IsCover {
			ids = append(ids, img.Id)
		}
	}
	return ids
}
