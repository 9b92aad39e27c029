package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/eventboard/shared/domain"
)

// GetAllFilePaths returns every blob path referenced by an image or a notice.
func (s *Storage) GetAllFilePaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM images WHERE path <> $1
		UNION
		SELECT attachment_path FROM notices WHERE attachment_path IS NOT NULL`,
		domain.PlaceholderPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return paths, nil
}
