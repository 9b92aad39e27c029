package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/eventboard/shared/domain"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/logger"
)

type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

// DecodeToken verifies signature and expiry. Every failure is reported as 401.
func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal_errors.Unauthorized("Token expired")
		}
		logger.Log.Debug("token rejected", "error", err)
		return nil, internal_errors.Unauthorized("Invalid token")
	}

	if !token.Valid {
		return nil, internal_errors.Unauthorized("Invalid token")
	}

	return token, nil
}

// UserId extracts the subject stored in the "uid" claim.
func UserId(token *jwt.Token) (domain.UserId, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", internal_errors.Unauthorized("Invalid token")
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", internal_errors.Unauthorized("Invalid token")
	}
	return uid, nil
}
