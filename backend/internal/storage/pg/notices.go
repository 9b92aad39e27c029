package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
)

const noticeColumns = `id, title, description, category, priority, author,
	attachment_path, attachment_name, attachment_size, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (domain.Notice, error) {
	var n domain.Notice
	var attachmentPath sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&n.Id, &n.Title, &n.Description, &n.Category, &n.Priority, &n.Author,
		&attachmentPath, &n.AttachmentName, &n.AttachmentSize, &n.CreatedAt, &updatedAt)
	if err != nil {
		return domain.Notice{}, err
	}
	if attachmentPath.Valid {
		n.AttachmentPath = &attachmentPath.String
	}
	if updatedAt.Valid {
		n.UpdatedAt = &updatedAt.Time
	}
	return n, nil
}

// ListNotices returns every notice, newest first.
func (s *Storage) ListNotices(ctx context.Context) ([]domain.Notice, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noticeColumns+" FROM notices ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query notices: %w", err)
	}
	defer rows.Close()

	notices := []domain.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return notices, nil
}

func (s *Storage) Notice(ctx context.Context, id domain.NoticeId) (domain.Notice, error) {
	n, err := scanNotice(s.db.QueryRowContext(ctx,
		"SELECT "+noticeColumns+" FROM notices WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Notice{}, internal_errors.NotFound("Notice not found")
		}
		return domain.Notice{}, fmt.Errorf("failed to query notice: %w", err)
	}
	return n, nil
}

func (s *Storage) SaveNotice(ctx context.Context, n domain.Notice) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notices("+noticeColumns+") VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		n.Id, n.Title, n.Description, n.Category, n.Priority, n.Author,
		n.AttachmentPath, n.AttachmentName, n.AttachmentSize, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notice: %w", err)
	}
	return nil
}

// UpdateNotice overwrites every mutable column of an existing notice.
func (s *Storage) UpdateNotice(ctx context.Context, n domain.Notice) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notices
		SET title = $2, description = $3, category = $4, priority = $5, author = $6,
		    attachment_path = $7, attachment_name = $8, attachment_size = $9, updated_at = $10
		WHERE id = $1`,
		n.Id, n.Title, n.Description, n.Category, n.Priority, n.Author,
		n.AttachmentPath, n.AttachmentName, n.AttachmentSize, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update notice: %w", err)
	}
	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal_errors.NotFound("Notice not found")
	}
	return nil
}

func (s *Storage) DeleteNotice(ctx context.Context, id domain.NoticeId) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete notice: %w", err)
	}
	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal_errors.NotFound("Notice not found")
	}
	return nil
}
