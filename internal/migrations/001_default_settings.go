package migrations

import (
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultSettings are the toggles a fresh install starts with. Existing
// values are never overwritten.
var defaultSettings = map[string]string{
	models.SettingMaintenanceMode:    "false",
	models.SettingRegistrationOpen:   "true",
	models.SettingInteractiveLessons: "true",
	models.SettingManualPaymentsOpen: "true",
}

func Migration001DefaultSettings() Migration {
	return Migration{
		ID:   "001_default_settings",
		Name: "Seed default system settings",
		Up: func(db *gorm.DB) error {
			now := time.Now()
			for key, value := range defaultSettings {
				setting := models.SystemSettings{Key: key, Value: value, UpdatedBy: "system", UpdatedAt: now}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			keys := make([]string, 0, len(defaultSettings))
			for key := range defaultSettings {
				keys = append(keys, key)
			}
			return db.Where("key IN ? AND updated_by = ?", keys, "system").Delete(&models.SystemSettings{}).Error
		},
	}
}
