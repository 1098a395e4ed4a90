package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reviewhub/internal/models"
)

// newTestDB opens a throwaway file-backed SQLite database with the full
// schema. TranslateError keeps constraint violations comparable with
// gorm.ErrDuplicatedKey, same as the Postgres setup.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	)
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTitle(t *testing.T, db *gorm.DB, name string, year int) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	require.NoError(t, db.Create(title).Error)
	return title
}

func seedReview(t *testing.T, db *gorm.DB, titleID int64, authorID string, score int) *models.Review {
	t.Helper()
	r := &models.Review{
		Text:     "seed review",
		Score:    score,
		AuthorID: authorID,
		TitleID:  titleID,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}
