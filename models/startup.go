package models

import (
	"time"

	"gorm.io/gorm"
)

// Startup is a published pitch. The slug is assigned exactly once at creation
// (gorm write permission `<-:create` blocks later updates) and the views
// counter only ever moves through the atomic increment on the detail read
// path, never through a read-then-write from calling code.
type Startup struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Slug        string `gorm:"size:120;uniqueIndex;not null;<-:create" json:"slug"`
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:500;not null" json:"description"`
	Category    string `gorm:"size:20;not null" json:"category"`
	Pitch       string `gorm:"type:text;not null" json:"pitch"` // raw markdown, rendered elsewhere
	Image       string `gorm:"size:1024;not null" json:"image"` // permanent media store URL
	AuthorID    uint   `gorm:"index;not null" json:"author_id"`
	// Denormalized author fields so listing cards render without a join.
	AuthorName  string    `gorm:"size:100;not null" json:"author"`
	AuthorEmail string    `gorm:"size:255;not null" json:"author_email"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      Author    `gorm:"foreignKey:AuthorID" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (s *Startup) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (s *Startup) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}
