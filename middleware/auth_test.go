package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authTestRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		email, _ := c.Get(ContextEmailKey)
		utils.Success(c, gin.H{"email": email})
	})
	return r
}

func getProtected(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := authTestRouter()

	w := getProtected(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = getProtected(r, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = getProtected(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(7, "ada", "ada@example.com", time.Hour)
	require.NoError(t, err)

	w = getProtected(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := authTestRouter()

	token, err := utils.GenerateToken(7, "ada", "ada@example.com", time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := getProtected(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
