package models

import (
	"time"

	"gorm.io/gorm"
)

// LearningPath is an ordered curriculum of lessons, independent of the
// Course/Chapter hierarchy.
type LearningPath struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Slug          string         `gorm:"uniqueIndex" json:"slug"`
	TitleEn       string         `json:"titleEn"`
	TitleAr       string         `json:"titleAr"`
	DescriptionEn string         `gorm:"type:text" json:"descriptionEn"`
	DescriptionAr string         `gorm:"type:text" json:"descriptionAr"`
	Icon          string         `json:"icon"`
	RequiredTier  MembershipTier `gorm:"not null" json:"requiredTier"` // default for new entries
	IsPublished   bool           `gorm:"default:false" json:"isPublished"`

	Lessons []PathLesson `gorm:"foreignKey:PathID" json:"lessons,omitempty"`
}

// PathLesson places a lesson at OrderNumber inside a path.
type PathLesson struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	PathID       string         `gorm:"type:text;not null;uniqueIndex:idx_path_order;uniqueIndex:idx_path_lesson" json:"pathId"`
	LessonID     string         `gorm:"type:text;not null;uniqueIndex:idx_path_lesson;index" json:"lessonId"`
	OrderNumber  int            `gorm:"not null;uniqueIndex:idx_path_order" json:"orderNumber"`
	RequiredTier MembershipTier `gorm:"not null" json:"requiredTier"`

	Lesson Lesson `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}
