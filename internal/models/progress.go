package models

import "time"

// Progress is unique per (client, lesson); writes are upserts.
type Progress struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	ClientID    string     `gorm:"type:text;not null;uniqueIndex:idx_progress_client_lesson" json:"clientId"`
	LessonID    string     `gorm:"type:text;not null;uniqueIndex:idx_progress_client_lesson" json:"lessonId"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Progress) TableName() string {
	return "progress"
}

// Certificate is issued once per (client, course) when every lesson of the
// course is completed. The unique index is the correctness backstop.
type Certificate struct {
	ID                string    `gorm:"primaryKey;type:text" json:"id"`
	ClientID          string    `gorm:"type:text;not null;uniqueIndex:idx_certificate_client_course" json:"clientId"`
	CourseID          string    `gorm:"type:text;not null;uniqueIndex:idx_certificate_client_course" json:"courseId"`
	CertificateNumber string    `gorm:"uniqueIndex" json:"certificateNumber"`
	URL               string    `json:"url"`
	IssuedAt          time.Time `json:"issuedAt"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// CodeAttempt tracks interactive-lesson submissions per (client, lesson).
type CodeAttempt struct {
	ID            string     `gorm:"primaryKey;type:text" json:"id"`
	ClientID      string     `gorm:"type:text;not null;uniqueIndex:idx_attempt_client_lesson" json:"clientId"`
	LessonID      string     `gorm:"type:text;not null;uniqueIndex:idx_attempt_client_lesson" json:"lessonId"`
	AttemptsCount int        `gorm:"default:0" json:"attemptsCount"`
	LastCode      string     `gorm:"type:text" json:"lastCode"`
	LastCorrect   bool       `json:"lastCorrect"`
	LastFeedback  string     `gorm:"type:text" json:"lastFeedback"`
	GradedBy      string     `json:"gradedBy"` // oracle model name or "fallback:<validation_type>"
	SolvedAt      *time.Time `json:"solvedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
