package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pitchforge/pitchforge/models"
)

func setupPVTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.PageView{}))

	r := gin.New()
	r.Use(PageViewRecorder(db))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/health", ok)
	r.GET("/api/v1/startups", ok)
	r.GET("/api/v1/startups/:slug/stats", ok)
	r.GET("/api/v1/auth/me", ok)
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/api/v1/startups", ok)
	return db, r
}

func get(r *gin.Engine, method, path string) {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
}

func pvCount(t *testing.T, db *gorm.DB, path string) int64 {
	t.Helper()
	var total int64
	require.NoError(t, db.Model(&models.PageView{}).
		Where("path = ?", path).
		Select("COALESCE(SUM(count),0)").
		Scan(&total).Error)
	return total
}

func TestPageViewRecorder_CountsContentGets(t *testing.T) {
	db, r := setupPVTest(t)

	get(r, http.MethodGet, "/api/v1/startups")
	get(r, http.MethodGet, "/api/v1/startups")
	get(r, http.MethodGet, "/api/v1/startups")

	// Same day and path aggregate into one row.
	assert.Equal(t, int64(3), pvCount(t, db, "/api/v1/startups"))
	var rows int64
	require.NoError(t, db.Model(&models.PageView{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestPageViewRecorder_SkipsNonContent(t *testing.T) {
	db, r := setupPVTest(t)

	get(r, http.MethodGet, "/health")
	get(r, http.MethodGet, "/api/v1/startups/foo/stats")
	get(r, http.MethodGet, "/api/v1/auth/me")
	get(r, http.MethodGet, "/missing")
	get(r, http.MethodPost, "/api/v1/startups")

	var rows int64
	require.NoError(t, db.Model(&models.PageView{}).Count(&rows).Error)
	assert.Zero(t, rows)
}
