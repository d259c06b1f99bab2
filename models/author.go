package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// emailPattern is a permissive RFC 5322 style check. Stricter validation is
// pointless here; deliverability is not our problem, uniqueness is.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Author owns zero or more startups. Startups keep a weak reference to the
// author id; removing an author never cascades into published pitches.
type Author struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Provider     string    `gorm:"size:32" json:"provider"`
	ProviderID   string    `gorm:"size:255" json:"-"`
	Image        string    `gorm:"size:512" json:"image"`
	Bio          string    `gorm:"size:500" json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Startups     []Startup `gorm:"foreignKey:AuthorID" json:"-"`
}

// BeforeCreate normalizes the email so the unique index on authors.email
// cannot be dodged by case or padding.
func (a *Author) BeforeCreate(tx *gorm.DB) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if !ValidEmail(a.Email) {
		return ErrInvalidEmail
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (a *Author) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// ValidEmail reports whether the address passes the permissive RFC 5322 check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
