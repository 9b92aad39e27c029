package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
)

// SaveUser inserts a new user. A duplicate email is a Conflict.
func (s *Storage) SaveUser(ctx context.Context, user domain.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users(id, name, email, pass_hash, created_at) VALUES($1, $2, $3, $4, $5)",
		user.Id, user.Name, user.Email, user.PassHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return internal_errors.Conflict("User already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	return s.user(ctx, s.db, "email", email)
}

func (s *Storage) UserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	return s.user(ctx, s.db, "id", id)
}

// user fetches one user by a trusted column name.
func (s *Storage) user(ctx context.Context, q Querier, column string, value string) (domain.User, error) {
	var user domain.User
	err := q.QueryRowContext(ctx,
		"SELECT id, name, email, pass_hash, created_at FROM users WHERE "+column+" = $1", value,
	).Scan(&user.Id, &user.Name, &user.Email, &user.PassHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}
