package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/itchan-dev/eventboard/backend/internal/utils"
	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockNoticeStorage struct {
	ListNoticesFunc  func() ([]domain.Notice, error)
	NoticeFunc       func(id domain.NoticeId) (domain.Notice, error)
	SaveNoticeFunc   func(n domain.Notice) error
	UpdateNoticeFunc func(n domain.Notice) error
	DeleteNoticeFunc func(id domain.NoticeId) error
}

func (m *MockNoticeStorage) ListNotices(ctx context.Context) ([]domain.Notice, error) {
	if m.ListNoticesFunc != nil {
		return m.ListNoticesFunc()
	}
	return []domain.Notice{}, nil
}

func (m *MockNoticeStorage) Notice(ctx context.Context, id domain.NoticeId) (domain.Notice, error) {
	if m.NoticeFunc != nil {
		return m.NoticeFunc(id)
	}
	return domain.Notice{}, internal_errors.NotFound("Notice not found")
}

func (m *MockNoticeStorage) SaveNotice(ctx context.Context, n domain.Notice) error {
	if m.SaveNoticeFunc != nil {
		return m.SaveNoticeFunc(n)
	}
	return nil
}

func (m *MockNoticeStorage) UpdateNotice(ctx context.Context, n domain.Notice) error {
	if m.UpdateNoticeFunc != nil {
		return m.UpdateNoticeFunc(n)
	}
	return nil
}

func (m *MockNoticeStorage) DeleteNotice(ctx context.Context, id domain.NoticeId) error {
	if m.DeleteNoticeFunc != nil {
		return m.DeleteNoticeFunc(id)
	}
	return nil
}

type upperRenderer struct{}

func (upperRenderer) Render(text string) string {
	if text == "" {
		return ""
	}
	return "<p>" + strings.ToUpper(text) + "</p>"
}

func newTestNotices(storage NoticeStorage) (*Notices, *memBlobs) {
	logger.Silence()
	blobs := newMemBlobs()
	return NewNotices(storage, blobs, &utils.NoticeValidator{}, upperRenderer{}), blobs
}

func attachment(name, content string) *domain.PendingFile {
	return &domain.PendingFile{
		FileCommonMetadata: domain.FileCommonMetadata{Filename: name, SizeBytes: int64(len(content)), MimeType: "application/pdf"},
		Data:               strings.NewReader(content),
	}
}

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestNoticeList(t *testing.T) {
	storage := &MockNoticeStorage{
		ListNoticesFunc: func() ([]domain.Notice, error) {
			return []domain.Notice{{Id: "2", Description: "newer"}, {Id: "1", Description: "older"}}, nil
		},
	}
	notices, _ := newTestNotices(storage)

	list, err := notices.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].Id)
	assert.Equal(t, "<p>NEWER</p>", list[0].DescriptionHTML)
	assert.Equal(t, "<p>OLDER</p>", list[1].DescriptionHTML)
}

func TestNoticeAdd(t *testing.T) {
	ctx := context.Background()
	fields := domain.NoticeFields{Title: " Holiday ", Description: "School closed"}

	t.Run("without attachment", func(t *testing.T) {
		var saved domain.Notice
		notices, blobs := newTestNotices(&MockNoticeStorage{
			SaveNoticeFunc: func(n domain.Notice) error { saved = n; return nil },
		})

		n, err := notices.Add(ctx, domain.NoticeCreationData{NoticeFields: fields})

		require.NoError(t, err)
		assert.NotEmpty(t, n.Id)
		assert.Equal(t, "Holiday", n.Title)
		assert.Equal(t, domain.DefaultNoticePriority, n.Priority)
		assert.Nil(t, n.AttachmentPath)
		assert.Equal(t, "<p>SCHOOL CLOSED</p>", n.DescriptionHTML)
		assert.Equal(t, n.Id, saved.Id)
		assert.False(t, n.CreatedAt.IsZero())
		assert.Equal(t, 0, blobs.count(""))
	})

	t.Run("with attachment", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{})

		n, err := notices.Add(ctx, domain.NoticeCreationData{NoticeFields: fields, Attachment: attachment("circular.pdf", "PDF")})

		require.NoError(t, err)
		require.NotNil(t, n.AttachmentPath)
		assert.True(t, strings.HasPrefix(*n.AttachmentPath, "notice_files/"))
		assert.True(t, strings.HasSuffix(*n.AttachmentPath, "-circular.pdf"))
		assert.Equal(t, "circular.pdf", n.AttachmentName)
		assert.Equal(t, int64(3), n.AttachmentSize)
		assert.True(t, blobs.has(*n.AttachmentPath))

		rc, err := blobs.Open(ctx, *n.AttachmentPath)
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "PDF", string(content))
	})

	t.Run("record failure removes the attachment", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{
			SaveNoticeFunc: func(n domain.Notice) error { return errInjected },
		})

		_, err := notices.Add(ctx, domain.NoticeCreationData{NoticeFields: fields, Attachment: attachment("a.pdf", "PDF")})

		assert.Equal(t, http.StatusInternalServerError, internal_errors.StatusCode(err))
		assert.Equal(t, 0, blobs.count("notice_files/"))
		assert.Len(t, blobs.deleted, 1)
	})

	t.Run("attachment failure writes no record", func(t *testing.T) {
		called := false
		notices, blobs := newTestNotices(&MockNoticeStorage{
			SaveNoticeFunc: func(n domain.Notice) error { called = true; return nil },
		})
		blobs.saveErr = errInjected

		_, err := notices.Add(ctx, domain.NoticeCreationData{NoticeFields: fields, Attachment: attachment("a.pdf", "PDF")})

		require.Error(t, err)
		assert.False(t, called)
	})

	t.Run("missing title", func(t *testing.T) {
		notices, _ := newTestNotices(&MockNoticeStorage{})
		_, err := notices.Add(ctx, domain.NoticeCreationData{NoticeFields: domain.NoticeFields{Description: "x"}})
		assert.True(t, internal_errors.IsValidation(err))
	})
}

func TestNoticeUpdate(t *testing.T) {
	ctx := context.Background()
	fields := domain.NoticeFields{Title: "New title", Description: "New body", Priority: "High"}

	existingWith := func(p string) func(domain.NoticeId) (domain.Notice, error) {
		return func(id domain.NoticeId) (domain.Notice, error) {
			n := domain.Notice{Id: id, Title: "Old", Description: "Old body", Priority: "Normal"}
			if p != "" {
				n.AttachmentPath = strPtr(p)
				n.AttachmentName = "old.pdf"
				n.AttachmentSize = 10
			}
			return n, nil
		}
	}

	t.Run("fields only keep the attachment", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{NoticeFunc: existingWith("notice_files/old.pdf")})
		blobs.files["notice_files/old.pdf"] = []byte("old")

		n, err := notices.Update(ctx, domain.NoticeUpdateData{Id: "n1", NoticeFields: fields})

		require.NoError(t, err)
		assert.Equal(t, "New title", n.Title)
		assert.Equal(t, "High", n.Priority)
		require.NotNil(t, n.UpdatedAt)
		assert.Equal(t, "notice_files/old.pdf", *n.AttachmentPath)
		assert.True(t, blobs.has("notice_files/old.pdf"))
	})

	t.Run("new attachment replaces the old one", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{NoticeFunc: existingWith("notice_files/old.pdf")})
		blobs.files["notice_files/old.pdf"] = []byte("old")

		n, err := notices.Update(ctx, domain.NoticeUpdateData{Id: "n1", NoticeFields: fields, Attachment: attachment("new.pdf", "new")})

		require.NoError(t, err)
		require.NotNil(t, n.AttachmentPath)
		assert.NotEqual(t, "notice_files/old.pdf", *n.AttachmentPath)
		assert.Equal(t, "new.pdf", n.AttachmentName)
		assert.True(t, blobs.has(*n.AttachmentPath))
		assert.False(t, blobs.has("notice_files/old.pdf"))
	})

	t.Run("remove attachment", func(t *testing.T) {
		var updated domain.Notice
		notices, blobs := newTestNotices(&MockNoticeStorage{
			NoticeFunc:       existingWith("notice_files/old.pdf"),
			UpdateNoticeFunc: func(n domain.Notice) error { updated = n; return nil },
		})
		blobs.files["notice_files/old.pdf"] = []byte("old")

		n, err := notices.Update(ctx, domain.NoticeUpdateData{Id: "n1", NoticeFields: fields, RemoveAttachment: true})

		require.NoError(t, err)
		assert.Nil(t, n.AttachmentPath)
		assert.Nil(t, updated.AttachmentPath)
		assert.Empty(t, updated.AttachmentName)
		assert.False(t, blobs.has("notice_files/old.pdf"))
	})

	t.Run("record failure keeps the old attachment", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{
			NoticeFunc:       existingWith("notice_files/old.pdf"),
			UpdateNoticeFunc: func(n domain.Notice) error { return errInjected },
		})
		blobs.files["notice_files/old.pdf"] = []byte("old")

		_, err := notices.Update(ctx, domain.NoticeUpdateData{Id: "n1", NoticeFields: fields, Attachment: attachment("new.pdf", "new")})

		require.Error(t, err)
		assert.True(t, blobs.has("notice_files/old.pdf"))
		assert.Equal(t, 1, blobs.count("notice_files/"))
	})

	t.Run("unknown notice", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{})

		_, err := notices.Update(ctx, domain.NoticeUpdateData{Id: "nope", NoticeFields: fields, Attachment: attachment("new.pdf", "new")})

		assert.True(t, internal_errors.IsNotFound(err))
		assert.Equal(t, 0, blobs.count(""))
	})
}

func TestNoticeDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes record then attachment", func(t *testing.T) {
		var order []string
		notices, blobs := newTestNotices(&MockNoticeStorage{
			NoticeFunc: func(id domain.NoticeId) (domain.Notice, error) {
				return domain.Notice{Id: id, AttachmentPath: strPtr("notice_files/a.pdf")}, nil
			},
			DeleteNoticeFunc: func(id domain.NoticeId) error {
				order = append(order, "record")
				return nil
			},
		})
		blobs.files["notice_files/a.pdf"] = []byte("a")

		require.NoError(t, notices.Delete(ctx, "n1"))

		assert.Equal(t, []string{"record"}, order)
		assert.False(t, blobs.has("notice_files/a.pdf"))
	})

	t.Run("missing attachment file is fine", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{
			NoticeFunc: func(id domain.NoticeId) (domain.Notice, error) {
				return domain.Notice{Id: id, AttachmentPath: strPtr("notice_files/gone.pdf")}, nil
			},
		})
		blobs.deleteErr = errInjected

		assert.NoError(t, notices.Delete(ctx, "n1"))
	})

	t.Run("record failure keeps the attachment", func(t *testing.T) {
		notices, blobs := newTestNotices(&MockNoticeStorage{
			NoticeFunc: func(id domain.NoticeId) (domain.Notice, error) {
				return domain.Notice{Id: id, AttachmentPath: strPtr("notice_files/a.pdf")}, nil
			},
			DeleteNoticeFunc: func(id domain.NoticeId) error { return errInjected },
		})
		blobs.files["notice_files/a.pdf"] = []byte("a")

		require.Error(t, notices.Delete(ctx, "n1"))
		assert.True(t, blobs.has("notice_files/a.pdf"))
	})

	t.Run("unknown notice", func(t *testing.T) {
		notices, _ := newTestNotices(&MockNoticeStorage{})
		assert.True(t, internal_errors.IsNotFound(notices.Delete(ctx, "nope")))
	})

	t.Run("empty id", func(t *testing.T) {
		notices, _ := newTestNotices(&MockNoticeStorage{})
		assert.True(t, internal_errors.IsValidation(notices.Delete(ctx, "")))
	})
}
