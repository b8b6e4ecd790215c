package utils

import (
	"testing"
	"time"

	"shipbook/models"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestParseIdentity_RoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, models.Identity{UserID: "u1", Role: models.RoleOperator}, time.Hour)
	require.NoError(t, err)

	id, err := ParseIdentity(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "u1", Role: models.RoleOperator}, id)
}

func TestParseIdentity_Rejects(t *testing.T) {
	good, err := GenerateToken(testSecret, models.Identity{UserID: "u1", Role: models.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(testSecret, models.Identity{UserID: "u1", Role: models.RoleCustomer}, -time.Minute)
	require.NoError(t, err)
	badRole, err := GenerateToken(testSecret, models.Identity{UserID: "u1", Role: "admin"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := GenerateToken(testSecret, models.Identity{Role: models.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": "operator"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name   string
		secret []byte
		token  string
		want   error
	}{
		{"wrong secret", []byte("other"), good, ErrInvalidToken},
		{"expired", testSecret, expired, ErrInvalidToken},
		{"garbage", testSecret, "not.a.token", ErrInvalidToken},
		{"alg none", testSecret, none, ErrInvalidToken},
		{"unknown role", testSecret, badRole, ErrMissingRole},
		{"no subject", testSecret, noSubject, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseIdentity(tc.secret, tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseIdentity_RequiresSecret(t *testing.T) {
	_, err := ParseIdentity(nil, "x")
	assert.Error(t, err)
}
