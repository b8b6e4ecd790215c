package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shipbook/models"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("middleware-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, id models.Identity) string {
	t.Helper()
	s, err := utils.GenerateToken(secret, id, time.Hour)
	require.NoError(t, err)
	return "Bearer " + s
}

func echoIdentity(c *gin.Context) {
	id, _ := IdentityFrom(c)
	c.JSON(http.StatusOK, id)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(secret), echoIdentity)

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", map[string]string{"Authorization": token(t, models.Identity{UserID: "u1", Role: models.RoleCustomer})})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"u1","role":"customer"}`, w.Body.String())
}

func TestRequireCapability(t *testing.T) {
	r := gin.New()
	r.POST("/bookings", JWTAuthMiddleware(secret), RequireCapability(models.CapCreateBooking), echoIdentity)

	w := serve(r, http.MethodPost, "/bookings", map[string]string{"Authorization": token(t, models.Identity{UserID: "op", Role: models.RoleOperator})})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/bookings", map[string]string{"Authorization": token(t, models.Identity{UserID: "u1", Role: models.RoleCustomer})})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperatorAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-key"), bcrypt.MinCost)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", OperatorAuthMiddleware(secret, string(hash)), echoIdentity)

	cases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{OperatorKeyHeader: "guess"}, http.StatusUnauthorized},
		{"valid key", map[string]string{OperatorKeyHeader: "s3cret-key"}, http.StatusOK},
		{"customer token", map[string]string{"Authorization": token(t, models.Identity{UserID: "u1", Role: models.RoleCustomer})}, http.StatusForbidden},
		{"operator token", map[string]string{"Authorization": token(t, models.Identity{UserID: "op1", Role: models.RoleOperator})}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/admin", tc.headers)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestOperatorAuthMiddleware_NoHashConfigured(t *testing.T) {
	r := gin.New()
	r.GET("/admin", OperatorAuthMiddleware(secret, ""), echoIdentity)
	w := serve(r, http.MethodGet, "/admin", map[string]string{OperatorKeyHeader: ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(r, http.MethodGet, "/admin", map[string]string{OperatorKeyHeader: "anything"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(2)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewLocalRateLimiter(1), zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", nil).Code)

	open := gin.New()
	open.Use(RateLimitMiddleware(brokenLimiter{}, zap.NewNop()))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(open, http.MethodGet, "/", nil).Code)
}
