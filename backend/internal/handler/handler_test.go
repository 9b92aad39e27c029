package handler

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchan-dev/eventboard/shared/config"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockAuthService struct {
	MockRegister func(data domain.RegistrationData) error
	MockLogin    func(creds domain.Credentials) (string, error)
	MockUserInfo func(id domain.UserId) (domain.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, data domain.RegistrationData) error {
	if m.MockRegister != nil {
		return m.MockRegister(data)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if m.MockLogin != nil {
		return m.MockLogin(creds)
	}
	return "token", nil
}

func (m *MockAuthService) UserInfo(ctx context.Context, id domain.UserId) (domain.User, error) {
	if m.MockUserInfo != nil {
		return m.MockUserInfo(id)
	}
	return domain.User{Id: id}, nil
}

type MockGalleryService struct {
	MockListEvents         func() ([]domain.EventName, error)
	MockListImages         func(event domain.EventName) ([]domain.Image, error)
	MockCreateEvent        func(event domain.EventName) error
	MockUploadImages       func(event domain.EventName, files []*domain.PendingFile) (int, error)
	MockDeleteImage        func(id domain.ImageId, path string) error
	MockSetCover           func(event domain.EventName, id domain.ImageId) error
	MockRenameEvent        func(oldName, newName domain.EventName) error
	MockDeleteEvent        func(event domain.EventName) error
	MockPublicEventSummary func() ([]domain.EventSummary, error)
	MockEventStats         func() ([]domain.EventStats, error)
}

func (m *MockGalleryService) ListEvents(ctx context.Context) ([]domain.EventName, error) {
	if m.MockListEvents != nil {
		return m.MockListEvents()
	}
	return nil, nil
}

func (m *MockGalleryService) ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error) {
	if m.MockListImages != nil {
		return m.MockListImages(event)
	}
	return nil, nil
}

func (m *MockGalleryService) CreateEvent(ctx context.Context, event domain.EventName) error {
	if m.MockCreateEvent != nil {
		return m.MockCreateEvent(event)
	}
	return nil
}

func (m *MockGalleryService) UploadImages(ctx context.Context, event domain.EventName, files []*domain.PendingFile) (int, error) {
	if m.MockUploadImages != nil {
		return m.MockUploadImages(event, files)
	}
	return len(files), nil
}

func (m *MockGalleryService) DeleteImage(ctx context.Context, id domain.ImageId, path string) error {
	if m.MockDeleteImage != nil {
		return m.MockDeleteImage(id, path)
	}
	return nil
}

func (m *MockGalleryService) SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error {
	if m.MockSetCover != nil {
		return m.MockSetCover(event, id)
	}
	return nil
}

func (m *MockGalleryService) RenameEvent(ctx context.Context, oldName, newName domain.EventName) error {
	if m.MockRenameEvent != nil {
		return m.MockRenameEvent(oldName, newName)
	}
	return nil
}

func (m *MockGalleryService) DeleteEvent(ctx context.Context, event domain.EventName) error {
	if m.MockDeleteEvent != nil {
		return m.MockDeleteEvent(event)
	}
	return nil
}

func (m *MockGalleryService) PublicEventSummary(ctx context.Context) ([]domain.EventSummary, error) {
	if m.MockPublicEventSummary != nil {
		return m.MockPublicEventSummary()
	}
	return nil, nil
}

func (m *MockGalleryService) EventStats(ctx context.Context) ([]domain.EventStats, error) {
	if m.MockEventStats != nil {
		return m.MockEventStats()
	}
	return nil, nil
}

type MockNoticeService struct {
	MockList   func() ([]domain.Notice, error)
	MockAdd    func(data domain.NoticeCreationData) (domain.Notice, error)
	MockUpdate func(data domain.NoticeUpdateData) (domain.Notice, error)
	MockDelete func(id domain.NoticeId) error
}

func (m *MockNoticeService) List(ctx context.Context) ([]domain.Notice, error) {
	if m.MockList != nil {
		return m.MockList()
	}
	return nil, nil
}

func (m *MockNoticeService) Add(ctx context.Context, data domain.NoticeCreationData) (domain.Notice, error) {
	if m.MockAdd != nil {
		return m.MockAdd(data)
	}
	return domain.Notice{Id: "n1", Title: data.Title}, nil
}

func (m *MockNoticeService) Update(ctx context.Context, data domain.NoticeUpdateData) (domain.Notice, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(data)
	}
	return domain.Notice{Id: data.Id, Title: data.Title}, nil
}

func (m *MockNoticeService) Delete(ctx context.Context, id domain.NoticeId) error {
	if m.MockDelete != nil {
		return m.MockDelete(id)
	}
	return nil
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		JwtTTL:                  config.MaxJwtTTL,
		MaxUploadImages:         5,
		MaxImageSizeBytes:       1 << 20,
		MaxTotalUploadSize:      5 << 20,
		AllowedImageMimeTypes:   []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"},
		MaxNoticeAttachmentSize: 1 << 20,
		NoticeAllowedExtensions: []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"},
		NoticeAllowedMimeTypes:  []string{"application/pdf", "application/msword", "image/jpeg", "image/png"},
	}}
}

func newTestHandler() *Handler {
	logger.Silence()
	return &Handler{
		auth:    &MockAuthService{},
		gallery: &MockGalleryService{},
		notice:  &MockNoticeService{},
		blobs:   &MockBlobStorage{},
		health:  &MockHealthChecker{},
		cfg:     testConfig(),
	}
}

func createRequest(t *testing.T, method, url string, body []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// multipartRequest builds a request with the given text fields and files.
func multipartRequest(t *testing.T, method, url string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.filename + `"`}
		if f.contentType != "" {
			header["Content-Type"] = []string{f.contentType}
		}
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	return buf.Bytes()
}
