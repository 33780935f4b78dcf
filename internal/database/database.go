package database

import (
	"errors"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open picks the dialector from the DSN: "sqlite:<path>" for local development,
// anything else is handed to the Postgres driver.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return gorm.Open(sqlite.Open(path), cfg)
	}
	return gorm.Open(postgres.Open(dsn), cfg)
}

func Connect() {
	db, err := Open(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get underlying sql.DB")
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	DB = db
	logger.Info().Int("max_open", 25).Int("max_idle", 10).Msg("Connected to database")
}

// IsFeatureEnabled checks if a system setting (feature flag) is set to "true"
func IsFeatureEnabled(key string) bool {
	if DB == nil {
		return false
	}
	var setting struct {
		Value string
	}
	if err := DB.Table("system_settings").Select("value").Where("key = ?", key).First(&setting).Error; err != nil {
		return false
	}
	return setting.Value == "true"
}

// IsFeatureDisabled is true only when the flag exists and is explicitly "false".
// Missing flags leave the feature on.
func IsFeatureDisabled(key string) bool {
	if DB == nil {
		return false
	}
	var setting struct {
		Value string
	}
	if err := DB.Table("system_settings").Select("value").Where("key = ?", key).First(&setting).Error; err != nil {
		return false
	}
	return setting.Value == "false"
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
