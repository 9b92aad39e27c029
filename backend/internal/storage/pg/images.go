package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
)

const imageColumns = "id, event, filename, path, uploaded_at, is_cover"

// =========================================================================
// Public Methods (satisfy the service.GalleryStorage interface)
// =========================================================================

func (s *Storage) ListEvents(ctx context.Context) ([]domain.EventName, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT event FROM images ORDER BY event")
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []domain.EventName{}
	for rows.Next() {
		var event domain.EventName
		if err := rows.Scan(&event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return events, nil
}

// ListImages returns the images of an event in insertion order, placeholder included.
func (s *Storage) ListImages(ctx context.Context, event domain.EventName) ([]domain.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE event = $1 ORDER BY seq", event)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := []domain.Image{}
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.Id, &img.Event, &img.Filename, &img.Path, &img.UploadedAt, &img.IsCover); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return images, nil
}

func (s *Storage) SaveImage(ctx context.Context, img domain.Image) error {
	return s.saveImage(ctx, s.db, img)
}

// CreateEvent inserts the placeholder image unless the event already exists.
// The check and the insert share a transaction.
func (s *Storage) CreateEvent(ctx context.Context, placeholder domain.Image) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Serializes concurrent creations of the same name across processes
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1::text))", placeholder.Event); err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		exists, err := s.eventExists(ctx, tx, placeholder.Event)
		if err != nil {
			return err
		}
		if exists {
			return internal_errors.Conflict("Event already exists")
		}
		return s.saveImage(ctx, tx, placeholder)
	})
}

// DeleteImage removes an image record and returns it, or NotFound.
func (s *Storage) DeleteImage(ctx context.Context, id domain.ImageId) (domain.Image, error) {
	var img domain.Image
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM images WHERE id = $1 RETURNING "+imageColumns, id,
	).Scan(&img.Id, &img.Event, &img.Filename, &img.Path, &img.UploadedAt, &img.IsCover)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Image{}, internal_errors.NotFound("Image not found")
		}
		return domain.Image{}, fmt.Errorf("failed to delete image: %w", err)
	}
	return img, nil
}

// ImagePathInUse reports whether any image record points at path.
func (s *Storage) ImagePathInUse(ctx context.Context, path string) (bool, error) {
	var inUse bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM images WHERE path = $1)", path,
	).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check image path: %w", err)
	}
	return inUse, nil
}

// SetCover clears the cover flag across the event and sets it on id, in one
// transaction. Returns NotFound if id is not a real image of the event.
func (s *Storage) SetCover(ctx context.Context, event domain.EventName, id domain.ImageId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE images SET is_cover = FALSE WHERE event = $1 AND is_cover", event); err != nil {
			return fmt.Errorf("failed to clear cover: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE images SET is_cover = TRUE WHERE id = $1 AND event = $2 AND path <> $3",
			id, event, domain.PlaceholderPath)
		if err != nil {
			return fmt.Errorf("failed to set cover: %w", err)
		}
		n, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if n == 0 {
			return internal_errors.NotFound("Image not found in event")
		}
		return nil
	})
}

// RenameEvent moves every record of oldName to newName and rewrites stored
// paths from the old event directory to the new one. Returns Conflict if
// newName is taken and NotFound if oldName has no records.
func (s *Storage) RenameEvent(ctx context.Context, oldName, newName domain.EventName) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1::text))", newName); err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		exists, err := s.eventExists(ctx, tx, newName)
		if err != nil {
			return err
		}
		if exists {
			return internal_errors.Conflict("Event with the new name already exists")
		}

		oldPrefix := domain.EventDir(oldName) + "/"
		newPrefix := domain.EventDir(newName) + "/"
		result, err := tx.ExecContext(ctx, `
			UPDATE images
			SET event = $2,
			    path = CASE
			        WHEN left(path, length($3::text)) = $3::text THEN $4::text || substr(path, length($3::text) + 1)
			        ELSE path
			    END
			WHERE event = $1`,
			oldName, newName, oldPrefix, newPrefix,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return internal_errors.Conflict("Event with the new name already exists")
			}
			return fmt.Errorf("failed to rename event: %w", err)
		}
		n, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if n == 0 {
			return internal_errors.NotFound("Event not found")
		}
		return nil
	})
}

// DeleteEvent removes every record of the event and reports how many went.
func (s *Storage) DeleteEvent(ctx context.Context, event domain.EventName) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE event = $1", event)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}
	return rowsAffected(result)
}

// EventSummaries returns one row per event. The cover is the flagged image,
// else the earliest upload; the placeholder never counts.
func (s *Storage) EventSummaries(ctx context.Context) ([]domain.EventSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event,
		       (ARRAY_AGG(path ORDER BY is_cover DESC, uploaded_at ASC, seq ASC)
		            FILTER (WHERE path <> $1))[1] AS cover,
		       COUNT(*) FILTER (WHERE path <> $1) AS count
		FROM images
		GROUP BY event
		ORDER BY event`,
		domain.PlaceholderPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query event summaries: %w", err)
	}
	defer rows.Close()

	summaries := []domain.EventSummary{}
	for rows.Next() {
		var summary domain.EventSummary
		var cover sql.NullString
		if err := rows.Scan(&summary.Event, &cover, &summary.Count); err != nil {
			return nil, fmt.Errorf("failed to scan event summary: %w", err)
		}
		if cover.Valid {
			summary.Cover = &cover.String
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return summaries, nil
}

func (s *Storage) EventStats(ctx context.Context) ([]domain.EventStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event, COUNT(*) FILTER (WHERE path <> $1)
		FROM images
		GROUP BY event
		ORDER BY event`,
		domain.PlaceholderPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query event stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.EventStats{}
	for rows.Next() {
		var st domain.EventStats
		if err := rows.Scan(&st.Event, &st.Count); err != nil {
			return nil, fmt.Errorf("failed to scan event stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return stats, nil
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) eventExists(ctx context.Context, q Querier, event domain.EventName) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM images WHERE event = $1)", event).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

func (s *Storage) saveImage(ctx context.Context, q Querier, img domain.Image) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO images("+imageColumns+") VALUES($1, $2, $3, $4, $5, $6)",
		img.Id, img.Event, img.Filename, img.Path, img.UploadedAt, img.IsCover)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}
