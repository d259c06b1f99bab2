package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pitchforge/pitchforge/middleware"
	"github.com/pitchforge/pitchforge/models"
	"github.com/pitchforge/pitchforge/utils"
)

func newAuthRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	ac := NewAuthController(db)
	r.POST("/api/v1/auth/register", ac.Register)
	r.POST("/api/v1/auth/login", ac.Login)
	r.POST("/api/v1/auth/logout", ac.Logout)
	r.GET("/api/v1/authors/:id", ac.GetAuthor)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	r := newAuthRouter(db)

	w := postJSON(t, r, "/api/v1/auth/register", gin.H{
		"name":     "Ada Lovelace",
		"username": "ada",
		"email":    "Ada@Example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	var data struct {
		Token  string `json:"token"`
		Author struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "ada@example.com", data.Author.Email)

	// Stored email is normalized lowercase by the model hook.
	var stored models.Author
	require.NoError(t, db.First(&stored, data.Author.ID).Error)
	assert.Equal(t, "ada@example.com", stored.Email)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)

	// Login works with any casing of the registered address.
	w = postJSON(t, r, "/api/v1/auth/login", gin.H{
		"email":    "ADA@example.COM",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/api/v1/auth/login", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	r := newAuthRouter(db)

	payload := gin.H{
		"name":     "Ada Lovelace",
		"username": "ada",
		"email":    "ada@example.com",
		"password": "correct-horse",
	}
	w := postJSON(t, r, "/api/v1/auth/register", payload)
	require.Equal(t, http.StatusOK, w.Code)

	payload["username"] = "ada2"
	w = postJSON(t, r, "/api/v1/auth/register", payload)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_InvalidEmail(t *testing.T) {
	db := setupTestDB(t)
	r := newAuthRouter(db)

	w := postJSON(t, r, "/api/v1/auth/register", gin.H{
		"name":     "Ada",
		"username": "ada",
		"email":    "not-an-email",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "email")
}

func TestLogout_BlacklistsToken(t *testing.T) {
	db := setupTestDB(t)
	r := newAuthRouter(db)
	author := seedAuthor(t, db)

	token, err := utils.GenerateToken(author.ID, author.Username, author.Email, tokenLifetime)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, utils.IsTokenBlacklisted(token))
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	ac := NewAuthController(db)

	r := gin.New()
	r.GET("/me", func(c *gin.Context) {
		c.Set(middleware.ContextAuthorIDKey, author.ID)
		ac.Me(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	var data struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "ada", data.Username)
	assert.Equal(t, "ada@example.com", data.Email)
}

func TestGetAuthor(t *testing.T) {
	db := setupTestDB(t)
	author := seedAuthor(t, db)
	r := newAuthRouter(db)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/authors/%d", author.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	var data struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "Ada Lovelace", data.Name)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/authors/99999", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/authors/not-a-number", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFindOrCreateAuthor(t *testing.T) {
	db := setupTestDB(t)
	ac := NewAuthController(db)

	created, err := ac.findOrCreateAuthor(&githubUser{
		ID:          "42",
		Login:       "ada",
		DisplayName: "Ada Lovelace",
		Email:       "Ada@Example.com",
		AvatarURL:   "https://avatars.test/ada-v1.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "github", created.Provider)

	// A later login refreshes the stored profile in place.
	again, err := ac.findOrCreateAuthor(&githubUser{
		ID:          "42",
		Login:       "ada",
		DisplayName: "Ada K. Lovelace",
		Email:       "ada@example.com",
		AvatarURL:   "https://avatars.test/ada-v2.png",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	var stored models.Author
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, "Ada K. Lovelace", stored.Name)
	assert.Equal(t, "https://avatars.test/ada-v2.png", stored.Image)

	var total int64
	require.NoError(t, db.Model(&models.Author{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestFindOrCreateAuthor_ReusesLocalProfileByEmail(t *testing.T) {
	db := setupTestDB(t)
	local := seedAuthor(t, db)

	ac := NewAuthController(db)
	linked, err := ac.findOrCreateAuthor(&githubUser{
		ID:        "42",
		Login:     "ada",
		Email:     "ADA@example.com",
		AvatarURL: "https://avatars.test/ada.png",
	})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)

	var stored models.Author
	require.NoError(t, db.First(&stored, local.ID).Error)
	assert.Equal(t, "github", stored.Provider)
	assert.Equal(t, "42", stored.ProviderID)
}

func TestFindOrCreateAuthor_RequiresEmail(t *testing.T) {
	db := setupTestDB(t)
	ac := NewAuthController(db)

	_, err := ac.findOrCreateAuthor(&githubUser{ID: "42", Login: "ada"})
	require.Error(t, err)
}

func TestEnsureUniqueUsername(t *testing.T) {
	db := setupTestDB(t)
	seedAuthor(t, db)
	ac := NewAuthController(db)

	assert.Equal(t, "ada_1", ac.ensureUniqueUsername("Ada", "42"))
	assert.Equal(t, "grace", ac.ensureUniqueUsername("Grace", "43"))
	assert.Equal(t, "author_44", ac.ensureUniqueUsername("---", "44"))
}
