package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pitchforge/pitchforge/middleware"
	"github.com/pitchforge/pitchforge/models"
	"github.com/pitchforge/pitchforge/utils"
)

// slugAllocAttempts bounds how often the allocator regenerates the random
// suffix before giving up with a slug-exhausted error.
const slugAllocAttempts = 5

// MediaUploader stores image bytes and returns a namespaced object key plus a
// permanent public URL. Satisfied by utils.MediaStore; faked in tests.
type MediaUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, string, error)
}

// StartupController owns the submission pipeline and the public read paths
// for published pitches.
type StartupController struct {
	db    *gorm.DB
	media MediaUploader
	// newSlug produces slug candidates; swapped in tests to force collisions.
	newSlug func(title string) string
}

// NewStartupController creates a new StartupController instance.
func NewStartupController(db *gorm.DB, media MediaUploader) *StartupController {
	return &StartupController{db: db, media: media, newSlug: utils.NewSlug}
}

// CreateStartup turns an untrusted multipart submission into a durably
// stored, uniquely addressable startup. Steps run strictly in order
// (validation, author resolution, slug pre-check, media upload, startup
// write) and any failure short-circuits the pipeline with a tagged result.
func (s *StartupController) CreateStartup(ctx *gin.Context) {
	form := StartupSubmission{
		Title:       strings.TrimSpace(ctx.PostForm("title")),
		Description: strings.TrimSpace(ctx.PostForm("description")),
		Category:    strings.TrimSpace(ctx.PostForm("category")),
		Pitch:       strings.TrimSpace(ctx.PostForm("pitch")),
	}

	file, header, fileErr := ctx.Request.FormFile("image")
	if fileErr == nil {
		defer file.Close()
		form.ImageFilename = header.Filename
		form.ImageContentType = header.Header.Get("Content-Type")
		form.ImageSize = header.Size
	}

	if errs := form.Validate(); len(errs) > 0 {
		utils.ErrorWithDetails(ctx, http.StatusBadRequest, 40010, "validation failed", errs)
		return
	}

	email, ok := getAuthorEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	author, err := resolveAuthorByEmail(s.db, email)
	if err != nil {
		if errors.Is(err, models.ErrAuthorNotFound) {
			utils.NotFound(ctx, "no author profile exists for the signed-in identity")
			return
		}
		utils.Sugar.Errorf("author lookup failed for %s: %v", email, err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to resolve author")
		return
	}

	// Allocate a candidate slug before spending an upload: a submission that
	// would collide forever should never reach the media store.
	slug, err := s.allocateSlug(form.Title)
	if err != nil {
		utils.Sugar.Errorf("slug allocation failed for title %q: %v", form.Title, err)
		utils.Error(ctx, http.StatusConflict, 40910, "could not allocate a unique slug, please retry")
		return
	}

	key, url, err := s.media.UploadImage(ctx.Request.Context(), form.ImageFilename, form.ImageContentType, file, form.ImageSize)
	if err != nil {
		utils.Sugar.Errorf("media upload failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "image upload failed")
		return
	}

	// Record the upload before the startup write; if the write fails, the
	// orphan sweeper reclaims the object from this ledger.
	upload := models.UploadedFile{ObjectKey: key, URL: url}
	if err := s.db.Create(&upload).Error; err != nil {
		utils.Sugar.Errorf("failed to record upload %s: %v", key, err)
	}

	startup := models.Startup{
		Slug:        slug,
		Title:       utils.Sanitize(form.Title),
		Description: utils.Sanitize(form.Description),
		Category:    utils.Sanitize(form.Category),
		Pitch:       form.Pitch, // raw markdown, rendered elsewhere
		Image:       url,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
	}

	var createErr error
	for attempt := 0; attempt < slugAllocAttempts; attempt++ {
		createErr = insertStartup(s.db, &startup)
		if createErr == nil {
			break
		}
		if errors.Is(createErr, models.ErrDuplicateSlug) {
			// Lost the race on the unique index: regenerate the suffix only.
			// The uploaded image is slug-independent and is reused as-is.
			startup.ID = 0
			startup.Slug = s.newSlug(form.Title)
			continue
		}
		break
	}
	if createErr != nil {
		// The uploaded object is now orphaned; the sweeper reclaims it, but
		// operators need the trail.
		utils.Sugar.Errorw("startup write failed after successful upload",
			"object", key, "title", form.Title, "err", createErr)
		if errors.Is(createErr, models.ErrDuplicateSlug) {
			utils.Error(ctx, http.StatusConflict, 40910, "could not allocate a unique slug, please retry")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create startup")
		return
	}

	if upload.ID != 0 {
		if err := s.db.Model(&upload).Update("startup_id", startup.ID).Error; err != nil {
			utils.Sugar.Errorf("failed to link upload %s to startup %d: %v", key, startup.ID, err)
		}
	}

	utils.InvalidateByPrefix("cache:startups:list:")
	utils.InvalidateByPrefix(fmt.Sprintf("cache:author:%d:startups:", author.ID))

	utils.Success(ctx, gin.H{"startup": startup})
}

// ListStartups returns paginated startups, newest first. An optional search
// query narrows the result to titles containing the substring,
// case-insensitively; no match is an empty success, never an error.
func (s *StartupController) ListStartups(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache plain listing pages only; search terms would explode the key space.
	cacheKey := fmt.Sprintf("cache:startups:list:page=%d:size=%d", page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := s.db.Model(&models.Startup{}).Order("created_at DESC")
	if search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count startups")
		return
	}

	var startups []models.Startup
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&startups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list startups")
		return
	}

	payload := gin.H{
		"items": startups,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetStartup returns the full startup plus its author summary for the detail
// page, bumping the view counter as a side effect of this exact call. Never
// cached: every render must pass through the atomic increment.
func (s *StartupController) GetStartup(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))
	if slug == "" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "missing slug")
		return
	}

	startup, err := incrementAndFetchStartup(s.db, slug)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrStartupNotFound):
			utils.NotFound(ctx, fmt.Sprintf("startup with slug %s not found", slug))
		case errors.Is(err, models.ErrViewsSaturated):
			utils.Sugar.Errorf("view counter saturated for slug %s", slug)
			utils.Error(ctx, http.StatusInternalServerError, 50023, "view counter unavailable")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load startup")
		}
		return
	}

	payload := gin.H{"startup": startup}
	var author models.Author
	if err := s.db.First(&author, startup.AuthorID).Error; err == nil {
		payload["author"] = gin.H{
			"id":       author.ID,
			"name":     author.Name,
			"username": author.Username,
			"image":    author.Image,
			"bio":      author.Bio,
		}
	}
	utils.Success(ctx, payload)
}

// ListAuthorStartups returns startups published by one author (public). A
// syntactically invalid author id yields an empty list, not an error.
func (s *StartupController) ListAuthorStartups(ctx *gin.Context) {
	rawID := strings.TrimSpace(ctx.Param("id"))
	authorID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		utils.Success(ctx, gin.H{"items": []models.Startup{}})
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	cacheKey := fmt.Sprintf("cache:author:%d:startups:page=%d:size=%d", authorID, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	q := s.db.Model(&models.Startup{}).Where("author_id = ?", authorID).Order("created_at DESC")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to count author startups")
		return
	}

	var startups []models.Startup
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&startups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list author startups")
		return
	}

	payload := gin.H{
		"items": startups,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// allocateSlug derives the candidate slug and pre-checks it against storage,
// regenerating the suffix on a hit. The unique index remains the authority;
// a race slipping past this check is caught at write time and retried there.
func (s *StartupController) allocateSlug(title string) (string, error) {
	for attempt := 0; attempt < slugAllocAttempts; attempt++ {
		candidate := s.newSlug(title)
		var n int64
		if err := s.db.Model(&models.Startup{}).Where("slug = ?", candidate).Count(&n).Error; err != nil {
			return "", fmt.Errorf("slug pre-check: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", models.ErrSlugExhausted
}

// insertStartup maps storage failures onto the pipeline taxonomy: a unique
// index hit is a retryable duplicate slug, anything else a terminal write
// failure.
func insertStartup(db *gorm.DB, startup *models.Startup) error {
	err := db.Create(startup).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", models.ErrDuplicateSlug, startup.Slug)
	}
	return fmt.Errorf("%w: %v", models.ErrWriteFailed, err)
}

// resolveAuthorByEmail maps the authenticated principal's email to a stored
// author. It never creates one: unknown identities must fail the submission
// with a user-attributable error. The email column is unique, but ordering by
// creation keeps the pick deterministic even on legacy tables predating the
// index.
func resolveAuthorByEmail(db *gorm.DB, email string) (*models.Author, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrAuthorNotFound
	}
	var author models.Author
	err := db.Where("email = ?", email).Order("created_at ASC, id ASC").First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAuthorLookup, err)
	}
	return &author, nil
}

// incrementAndFetchStartup atomically bumps the view counter for a slug and
// returns the post-increment row. The increment is a single UPDATE with a
// relative expression, so concurrent viewers can never lose updates; zero
// rows affected means the slug does not exist (nothing is ever created
// here). The counter refuses to wrap at the numeric bound.
func incrementAndFetchStartup(db *gorm.DB, slug string) (*models.Startup, error) {
	var startup models.Startup
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Startup{}).
			Where("slug = ? AND views < ?", slug, int64(math.MaxInt64)).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment views: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Missing slug or a counter pinned at the bound; tell them apart.
			probe := tx.Where("slug = ?", slug).First(&models.Startup{})
			if errors.Is(probe.Error, gorm.ErrRecordNotFound) {
				return models.ErrStartupNotFound
			}
			if probe.Error != nil {
				return fmt.Errorf("probe slug: %w", probe.Error)
			}
			return models.ErrViewsSaturated
		}
		return tx.Where("slug = ?", slug).First(&startup).Error
	})
	if err != nil {
		return nil, err
	}
	return &startup, nil
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getAuthorEmail(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextEmailKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

func getAuthorID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextAuthorIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
