package db

import (
	"errors"
	"os"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/bizcribe/bizcribe-backend/pkg/util"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Business{},
		&model.BusinessMembership{},
		&model.BusinessSubmission{},
		&model.BusinessVetting{},
		&model.ImportBatch{},
		&model.ImportItem{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedInitialData()
}

// seedInitialData creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no such user exists yet.
func seedInitialData() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Debug("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing model.User
	err := DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Seeded admin user", map[string]interface{}{
		"email": email,
	})
	return nil
}
