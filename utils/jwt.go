package utils

import (
	"errors"
	"time"

	"shipbook/models"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingRole  = errors.New("token does not carry a valid role")
)

// identityClaims is the bearer payload: subject is the user id.
type identityClaims struct {
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

// GenerateToken signs an HS256 token for the identity. Issuance belongs to
// an external identity provider; this exists for tooling and tests.
func GenerateToken(secret []byte, id models.Identity, duration time.Duration) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Role: id.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseIdentity validates the token signature and expiry and returns the
// caller identity it carries.
func ParseIdentity(secret []byte, tokenString string) (models.Identity, error) {
	if len(secret) == 0 {
		return models.Identity{}, errors.New("jwt secret not configured")
	}
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return models.Identity{}, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return models.Identity{}, ErrMissingRole
	}
	return models.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
