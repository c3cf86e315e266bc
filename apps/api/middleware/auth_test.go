package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-techshop/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(tokens *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/admin", Auth(tokens), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthResolvesUser(t *testing.T) {
	tokens := jwt.NewManager("secret", "techshop")
	r := newRouter(tokens)

	token, err := tokens.GenerateToken(42, "user")
	require.NoError(t, err)

	w := doGet(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestAuthRejectsMissingOrBadToken(t *testing.T) {
	tokens := jwt.NewManager("secret", "techshop")
	r := newRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "not-a-token").Code)
}

func TestRequireAdminRoleFailureIsForbidden(t *testing.T) {
	tokens := jwt.NewManager("secret", "techshop")
	r := newRouter(tokens)

	// authenticated but not an admin: identity resolved, role denied
	userToken, err := tokens.GenerateToken(42, "user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", userToken).Code)

	adminToken, err := tokens.GenerateToken(7, "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(r, "/admin", adminToken).Code)

	// no identity at all stays 401
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/admin", "").Code)
}
