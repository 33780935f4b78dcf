package models

import "time"

type ActionType string

const (
	ActionCreateCourse     ActionType = "CREATE_COURSE"
	ActionUpdateCourse     ActionType = "UPDATE_COURSE"
	ActionDeleteCourse     ActionType = "DELETE_COURSE"
	ActionCreateChapter    ActionType = "CREATE_CHAPTER"
	ActionUpdateChapter    ActionType = "UPDATE_CHAPTER"
	ActionDeleteChapter    ActionType = "DELETE_CHAPTER"
	ActionMoveChapter      ActionType = "MOVE_CHAPTER"
	ActionCreateLesson     ActionType = "CREATE_LESSON"
	ActionUpdateLesson     ActionType = "UPDATE_LESSON"
	ActionDeleteLesson     ActionType = "DELETE_LESSON"
	ActionMoveLesson       ActionType = "MOVE_LESSON"
	ActionCreatePath       ActionType = "CREATE_PATH"
	ActionUpdatePath       ActionType = "UPDATE_PATH"
	ActionDeletePath       ActionType = "DELETE_PATH"
	ActionAddPathLesson    ActionType = "ADD_PATH_LESSON"
	ActionUpdatePathLesson ActionType = "UPDATE_PATH_LESSON"
	ActionRemovePathLesson ActionType = "REMOVE_PATH_LESSON"
	ActionApprovePayment   ActionType = "APPROVE_PAYMENT"
	ActionRejectPayment    ActionType = "REJECT_PAYMENT"
	ActionDeleteCert       ActionType = "DELETE_CERTIFICATE"
	ActionGrantMembership  ActionType = "GRANT_MEMBERSHIP"
	ActionBlockUser        ActionType = "BLOCK_USER"
	ActionUnblockUser      ActionType = "UNBLOCK_USER"
	ActionUpdateSettings   ActionType = "UPDATE_SETTINGS"
)

// AdminAction is the audit trail of back-office mutations.
type AdminAction struct {
	ID         string     `gorm:"primaryKey;type:text" json:"id"`
	AdminID    string     `gorm:"index" json:"adminId"`
	Action     ActionType `gorm:"type:text" json:"action"`
	TargetID   string     `json:"targetId"`
	TargetType string     `json:"targetType"` // course, chapter, lesson, path, payment, certificate, user, system
	Reason     string     `json:"reason"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

// SystemSettings stores global configuration toggles
type SystemSettings struct {
	Key       string    `gorm:"primaryKey;type:text" json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	SettingMaintenanceMode    = "maintenance_mode"
	SettingMaintenanceETA     = "maintenance_eta"
	SettingRegistrationOpen   = "registration_open"
	SettingInteractiveLessons = "interactive_lessons_enabled"
	SettingManualPaymentsOpen = "manual_payments_enabled"
)

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Chapter{},
		&Lesson{},
		&LearningPath{},
		&PathLesson{},
		&Progress{},
		&Certificate{},
		&CodeAttempt{},
		&CartItem{},
		&Purchase{},
		&Payment{},
		&AdminAction{},
		&SystemSettings{},
	}
}
