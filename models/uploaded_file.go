package models

import "time"

// UploadedFile records every object pushed to the media store. Uploads happen
// before the startup row is written, so a failed write leaves the object
// unlinked; the orphan sweeper reclaims unlinked rows past their grace period.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ObjectKey string    `gorm:"size:512;not null" json:"object_key"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	StartupID *uint     `gorm:"index" json:"startup_id"` // nil until the startup write commits
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
