package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/eventboard/shared/domain"
	"github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, data domain.RegistrationData) error
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	UserInfo(ctx context.Context, id domain.UserId) (domain.User, error)
}

type Auth struct {
	storage AuthStorage
	jwt     Jwt
}

type AuthStorage interface {
	SaveUser(ctx context.Context, user domain.User) error
	UserByEmail(ctx context.Context, email domain.Email) (domain.User, error)
	UserById(ctx context.Context, id domain.UserId) (domain.User, error)
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

func NewAuth(storage AuthStorage, jwt Jwt) *Auth {
	return &Auth{
		storage: storage,
		jwt:     jwt,
	}
}

// Register creates a user. Emails are compared case-insensitively; a taken
// email is a Conflict.
func (a *Auth) Register(ctx context.Context, data domain.RegistrationData) error {
	email := strings.ToLower(strings.TrimSpace(data.Email))
	name := strings.TrimSpace(data.Name)
	if name == "" || email == "" || data.Password == "" {
		return errors.Validation("Name, email and password are required")
	}

	if _, err := a.storage.UserByEmail(ctx, email); err == nil {
		return errors.Conflict("User already exists")
	} else if !errors.IsNotFound(err) {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}

	return a.storage.SaveUser(ctx, domain.User{
		Id:        uuid.NewString(),
		Name:      name,
		Email:     email,
		PassHash:  string(passHash),
		CreatedAt: time.Now().UTC(),
	})
}

// Login checks credentials and returns an access token. Unknown email and
// wrong password produce the same error so existing users do not leak.
func (a *Auth) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := a.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", errors.Unauthorized("Invalid credentials")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		return "", errors.Unauthorized("Invalid credentials")
	}

	token, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to issue token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

func (a *Auth) UserInfo(ctx context.Context, id domain.UserId) (domain.User, error) {
	if id == "" {
		return domain.User{}, errors.Unauthorized("No token")
	}
	return a.storage.UserById(ctx, id)
}
