package middleware

import (
	"net/http"
	"strings"

	"shipbook/models"
	"shipbook/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	identityKey       = "identity"
	OperatorKeyHeader = "X-Operator-Key"
	operatorSubject   = "operator"
)

// IdentityFrom returns the identity set by one of the auth middlewares.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// JWTAuthMiddleware verifies an HS256 bearer token and stores the identity
// it carries.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		id, err := utils.ParseIdentity(secret, tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OperatorAuthMiddleware admits either the static operator key (checked
// against its bcrypt hash) or a bearer token with the operator role.
func OperatorAuthMiddleware(secret []byte, operatorKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(OperatorKeyHeader); key != "" {
			if operatorKeyHash == "" || bcrypt.CompareHashAndPassword([]byte(operatorKeyHash), []byte(key)) != nil {
				abort(c, http.StatusUnauthorized, "Unauthorized operator access")
				return
			}
			c.Set(identityKey, models.Identity{UserID: operatorSubject, Role: models.RoleOperator})
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing operator credentials")
			return
		}
		id, err := utils.ParseIdentity(secret, tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		if id.Role != models.RoleOperator {
			abort(c, http.StatusForbidden, "Operator role required")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks the capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !id.Can(capability) {
			abort(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, utils.ErrorResponse{Message: message})
}
