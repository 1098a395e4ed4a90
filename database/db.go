package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reviewhub/internal/models"
)

// Connect opens the Postgres database and brings the schema up to date.
// TranslateError makes driver-level constraint violations surface as
// gorm.ErrDuplicatedKey so the services can map them to conflict errors.
func Connect(databaseURL string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to the database successfully")
	return db, nil
}

// Migrate creates or updates the relational schema, including the unique
// indexes the policy layer leans on (users.username, users.email, the
// category/genre slugs and the (author_id, title_id) pair on reviews).
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	logger.Info("Database migrations applied successfully")
	return nil
}
