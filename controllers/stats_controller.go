package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pitchforge/pitchforge/models"
	"github.com/pitchforge/pitchforge/utils"
)

// StatsController exposes platform-wide aggregates and per-startup counters.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the platform.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var authorCount int64
	var startupCount int64
	var totalViews int64
	var dailyActive int64

	if err := s.db.Model(&models.Author{}).Count(&authorCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		authorCount = 0
	}

	if err := s.db.Model(&models.Startup{}).Count(&startupCount).Error; err != nil {
		startupCount = 0
	}

	if err := s.db.Model(&models.Startup{}).
		Select("COALESCE(SUM(views),0)").
		Scan(&totalViews).Error; err != nil {
		totalViews = 0
	}

	// Daily active (PV-based): sum of today's page views across all paths.
	// The recorder keys rows on local midnight; compare against the same value.
	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	utils.Success(ctx, gin.H{
		"author_count":       authorCount,
		"startup_count":      startupCount,
		"total_views":        totalViews,
		"daily_active_count": dailyActive,
	})
}

// GetStartupStats returns the durable view counter for one slug without
// incrementing it, plus its raw page-view totals.
func (s *StatsController) GetStartupStats(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var startup models.Startup
	if err := s.db.Select("id", "slug", "views").Where("slug = ?", slug).First(&startup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(ctx, "startup not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load startup stats")
		return
	}

	var pv int64
	if err := s.db.Model(&models.PageView{}).
		Where("path = ?", "/api/v1/startups/"+slug).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}

	utils.Success(ctx, gin.H{
		"slug":  startup.Slug,
		"views": startup.Views,
		"pv":    pv,
	})
}
