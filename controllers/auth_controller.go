package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"gorm.io/gorm"

	"github.com/pitchforge/pitchforge/config"
	"github.com/pitchforge/pitchforge/models"
	"github.com/pitchforge/pitchforge/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles authentication endpoints, local and GitHub OAuth.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6,max=72"`
		Bio      string `json:"bio"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if !models.ValidEmail(req.Email) {
		utils.ErrorWithDetails(ctx, http.StatusBadRequest, 40002, "validation failed",
			map[string]string{"email": "must be a valid email address"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	author := models.Author{
		Name:         strings.TrimSpace(req.Name),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Bio:          utils.Sanitize(req.Bio),
		Provider:     "local",
	}
	if author.Name == "" {
		author.Name = req.Username
	}

	if err := a.db.Create(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "username or email already registered")
			return
		}
		if errors.Is(err, models.ErrInvalidEmail) {
			utils.ErrorWithDetails(ctx, http.StatusBadRequest, 40002, "validation failed",
				map[string]string{"email": "must be a valid email address"})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create author")
		return
	}

	token, err := utils.GenerateToken(author.ID, author.Username, author.Email, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "author": authorResponse(author)})
}

// Login verifies credentials by email and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var author models.Author
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := a.db.Where("email = ?", email).First(&author).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	if !utils.CheckPassword(author.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(author.ID, author.Username, author.Email, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "author": authorResponse(author)})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated author's information.
func (a *AuthController) Me(ctx *gin.Context) {
	authorID, ok := getAuthorID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var author models.Author
	if err := a.db.First(&author, authorID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "author not found")
		return
	}

	utils.Success(ctx, authorResponse(author))
}

// GetAuthor returns a public author profile by ID.
func (a *AuthController) GetAuthor(ctx *gin.Context) {
	idStr := strings.TrimSpace(ctx.Param("id"))
	if idStr == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "missing author id")
		return
	}
	if _, err := strconv.ParseUint(idStr, 10, 32); err != nil {
		utils.NotFound(ctx, "author not found")
		return
	}

	if b, ok := utils.CacheGetBytes("cache:author:public:" + idStr); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var author models.Author
	if err := a.db.First(&author, idStr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "author not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to get author")
		return
	}

	payload := gin.H{
		"id":       author.ID,
		"name":     author.Name,
		"username": author.Username,
		"image":    author.Image,
		"bio":      author.Bio,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:author:public:"+idStr, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// OAuthRedirect generates the GitHub authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := githubOAuthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a GitHub identity and
// issues a JWT. This is also the only path that creates author profiles
// out of band, which the submission pipeline later resolves by email.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	cfg, err := githubOAuthConfig()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	ghUser, err := fetchGitHubUser(token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, err.Error())
		return
	}

	author, err := a.findOrCreateAuthor(ghUser)
	if err != nil {
		utils.Sugar.Errorf("failed to persist github author %s: %v", ghUser.ID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist author")
		return
	}

	jwtToken, err := utils.GenerateToken(author.ID, author.Username, author.Email, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "author": authorResponse(*author)})
}

func githubOAuthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		return nil, fmt.Errorf("github oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}, nil
}

type githubUser struct {
	ID          string
	Login       string
	DisplayName string
	Email       string
	AvatarURL   string
	Bio         string
}

func (a *AuthController) findOrCreateAuthor(data *githubUser) (*models.Author, error) {
	var author models.Author
	err := a.db.Where("provider = ? AND provider_id = ?", "github", data.ID).First(&author).Error
	if err == nil {
		updates := map[string]interface{}{"image": data.AvatarURL}
		if data.DisplayName != "" {
			updates["name"] = data.DisplayName
		}
		_ = a.db.Model(&author).Updates(updates)
		// The public profile was cached before this login refreshed it.
		utils.InvalidateByPrefix(fmt.Sprintf("cache:author:public:%d", author.ID))
		return &author, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(data.Email))
	if email == "" {
		// GitHub accounts can hide all emails; without one the submission
		// pipeline could never resolve this profile.
		return nil, fmt.Errorf("github account exposes no usable email")
	}

	// Same email, different provider record: reuse the profile instead of
	// tripping the unique index.
	if lookupErr := a.db.Where("email = ?", email).First(&author).Error; lookupErr == nil {
		_ = a.db.Model(&author).Updates(map[string]interface{}{
			"provider":    "github",
			"provider_id": data.ID,
			"image":       data.AvatarURL,
		})
		utils.InvalidateByPrefix(fmt.Sprintf("cache:author:public:%d", author.ID))
		return &author, nil
	}

	author = models.Author{
		Name:       fallback(data.DisplayName, data.Login),
		Username:   a.ensureUniqueUsername(data.Login, data.ID),
		Email:      email,
		Provider:   "github",
		ProviderID: data.ID,
		Image:      data.AvatarURL,
		Bio:        utils.Sanitize(data.Bio),
	}
	if err := a.db.Create(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func fetchGitHubUser(token *oauth2.Token) (*githubUser, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Bio       string `json:"bio"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	email := payload.Email
	if email == "" {
		email, _ = fetchGitHubEmail(token.AccessToken)
	}

	return &githubUser{
		ID:          fmt.Sprintf("%d", payload.ID),
		Login:       payload.Login,
		DisplayName: fallback(payload.Name, payload.Login),
		Email:       email,
		AvatarURL:   payload.AvatarURL,
		Bio:         payload.Bio,
	}, nil
}

func fetchGitHubEmail(accessToken string) (string, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user/emails", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github emails request failed: %s", resp.Status)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}

	if len(emails) > 0 {
		return emails[0].Email, nil
	}

	return "", nil
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

func (a *AuthController) ensureUniqueUsername(base, id string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = fmt.Sprintf("author_%s", id)
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := a.db.Model(&models.Author{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func authorResponse(author models.Author) gin.H {
	return gin.H{
		"id":         author.ID,
		"name":       author.Name,
		"username":   author.Username,
		"email":      author.Email,
		"provider":   author.Provider,
		"image":      author.Image,
		"bio":        author.Bio,
		"created_at": author.CreatedAt,
	}
}
