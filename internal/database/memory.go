package database

import (
	"fmt"
	"strings"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table of the platform.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// OpenMemory opens a private in-memory SQLite database with the full schema.
// A single connection keeps the shared-cache database consistent; callers must
// not query outside a transaction while one is open.
func OpenMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	db, err := Open(fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
