package middleware

import (
	"net/http"
	"strings"

	"go-techshop/pkg/jwt"
	"go-techshop/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "userId"
	CtxRole   = "role"
)

// Auth resolves the bearer token into a user id for downstream
// handlers. Token issuance belongs to the external identity service.
func Auth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserId)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// RequireAdmin guards the combo administration endpoints. The identity
// is already resolved by Auth at this point, so a role failure is 403,
// not 401.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(CtxRole); role != "admin" {
			response.Error(c, http.StatusForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *gin.Context) int64 {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(int64)
	return id
}
