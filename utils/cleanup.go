package utils

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pitchforge/pitchforge/models"
)

// StartOrphanSweeper launches a background goroutine that periodically
// removes uploaded objects that were never linked to a startup. Uploads
// happen before the startup write, so an aborted or failed submission leaves
// an unlinked row behind; this sweep is the compensating action. Best-effort,
// every removal is logged for operator visibility.
func StartOrphanSweeper(db *gorm.DB, media *MediaStore, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			sweepOrphans(db, media, ttl)
		}
	}()
}

func sweepOrphans(db *gorm.DB, media *MediaStore, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	var items []models.UploadedFile
	if err := db.Where("startup_id IS NULL AND created_at <= ?", cutoff).Limit(100).Find(&items).Error; err != nil {
		Sugar.Errorf("orphan sweep query failed: %v", err)
		return
	}
	for _, it := range items {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := media.Remove(ctx, it.ObjectKey)
		cancel()
		if err != nil {
			Sugar.Errorf("orphan sweep: failed to remove object %s: %v", it.ObjectKey, err)
			continue
		}
		if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
			Sugar.Errorf("orphan sweep: failed to delete row %d: %v", it.ID, err)
			continue
		}
		Sugar.Infow("reclaimed orphaned upload", "object", it.ObjectKey, "uploaded_at", it.CreatedAt)
	}
}
