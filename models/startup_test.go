package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openModelDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Author{}, &Startup{}))
	return db
}

func testStartup(authorID uint, slug string) Startup {
	return Startup{
		Slug:        slug,
		Title:       "Acme Robots",
		Description: "Autonomous delivery robots for dense urban neighborhoods.",
		Category:    "robotics",
		Pitch:       "Small sidewalk robots.",
		AuthorID:    authorID,
	}
}

func TestStartupSlugImmutable(t *testing.T) {
	db := openModelDB(t)
	author := Author{Name: "Ada", Username: "ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&author).Error)

	s := testStartup(author.ID, "acme-robots-abc123")
	require.NoError(t, db.Create(&s).Error)

	// The write-permission tag blocks slug changes after creation.
	s.Slug = "hijacked-slug-zzz999"
	s.Title = "Acme Robots v2"
	require.NoError(t, db.Save(&s).Error)

	var reloaded Startup
	require.NoError(t, db.First(&reloaded, s.ID).Error)
	assert.Equal(t, "acme-robots-abc123", reloaded.Slug)
	assert.Equal(t, "Acme Robots v2", reloaded.Title)
}

func TestStartupSlugUnique(t *testing.T) {
	db := openModelDB(t)
	author := Author{Name: "Ada", Username: "ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&author).Error)

	first := testStartup(author.ID, "acme-robots-abc123")
	require.NoError(t, db.Create(&first).Error)

	second := testStartup(author.ID, "acme-robots-abc123")
	err := db.Create(&second).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestAuthorEmailNormalizedAndUnique(t *testing.T) {
	db := openModelDB(t)

	first := Author{Name: "Ada", Username: "ada", Email: "Ada@Example.COM"}
	require.NoError(t, db.Create(&first).Error)
	assert.Equal(t, "ada@example.com", first.Email)

	second := Author{Name: "Imposter", Username: "ada2", Email: "ADA@example.com"}
	err := db.Create(&second).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	bad := Author{Name: "Nobody", Username: "nobody", Email: "not-an-email"}
	require.ErrorIs(t, db.Create(&bad).Error, ErrInvalidEmail)
}
