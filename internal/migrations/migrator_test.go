package migrations

import (
	"testing"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("test")
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	// an admin choice made before the migration ran must survive it
	require.NoError(t, db.Create(&models.SystemSettings{Key: models.SettingRegistrationOpen, Value: "false", UpdatedBy: "root"}).Error)

	require.NoError(t, NewMigrator(db).Run())
	require.NoError(t, NewMigrator(db).Run())

	var records int64
	db.Model(&MigrationRecord{}).Count(&records)
	assert.Equal(t, int64(len(GetMigrations())), records)

	var setting models.SystemSettings
	require.NoError(t, db.First(&setting, "key = ?", models.SettingRegistrationOpen).Error)
	assert.Equal(t, "false", setting.Value)

	var seeded models.SystemSettings
	require.NoError(t, db.First(&seeded, "key = ?", models.SettingInteractiveLessons).Error)
	assert.Equal(t, "true", seeded.Value)

	var indexes int64
	db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", "idx_payments_status_created").Scan(&indexes)
	assert.Equal(t, int64(1), indexes)
}

func TestMigrator_MissingDependency(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	m := &Migrator{db: db, migrations: []Migration{Migration002AddQueryIndexes()}}
	assert.Error(t, m.Run())
}
