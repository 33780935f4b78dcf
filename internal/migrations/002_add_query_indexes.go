package migrations

import (
	"gorm.io/gorm"
)

// queryIndexes cover the hot paths AutoMigrate tags do not:
//  1. completed-lesson lookups per learner
//  2. the admin payment queue, newest first
//  3. live catalog listing, skipping soft-deleted rows
//  4. certificate listings per course
//
// Statements are idempotent and valid on both Postgres and SQLite.
var queryIndexes = []struct{ name, create string }{
	{"idx_progress_client_completed", `CREATE INDEX IF NOT EXISTS idx_progress_client_completed ON progress (client_id) WHERE completed = true`},
	{"idx_payments_status_created", `CREATE INDEX IF NOT EXISTS idx_payments_status_created ON payments (status, created_at DESC)`},
	{"idx_courses_published_live", `CREATE INDEX IF NOT EXISTS idx_courses_published_live ON courses (created_at DESC) WHERE is_published = true AND deleted_at IS NULL`},
	{"idx_certificates_course_issued", `CREATE INDEX IF NOT EXISTS idx_certificates_course_issued ON certificates (course_id, issued_at DESC)`},
}

func Migration002AddQueryIndexes() Migration {
	return Migration{
		ID:        "002_add_query_indexes",
		Name:      "Add indexes for hot-path queries",
		DependsOn: []string{"001_default_settings"},
		Up: func(db *gorm.DB) error {
			// CREATE INDEX CONCURRENTLY cannot run inside the migrator's
			// transaction; run it by hand on large production tables.
			for _, idx := range queryIndexes {
				if err := db.Exec(idx.create).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			for i := len(queryIndexes) - 1; i >= 0; i-- {
				if err := db.Exec("DROP INDEX IF EXISTS " + queryIndexes[i].name).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
