package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course is the top of the catalog hierarchy: Course -> Chapter -> Lesson.
type Course struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TitleEn       string  `json:"titleEn"`
	TitleAr       string  `json:"titleAr"`
	DescriptionEn string  `gorm:"type:text" json:"descriptionEn"`
	DescriptionAr string  `gorm:"type:text" json:"descriptionAr"`
	Thumbnail     string  `json:"thumbnail"`
	Price         float64 `gorm:"default:0" json:"price"`
	IsPublished   bool    `gorm:"default:false;index" json:"isPublished"`

	Chapters []Chapter `gorm:"foreignKey:CourseID" json:"chapters,omitempty"`
}

// Chapter ordering keys are dense per course and swapped pairwise on reorder.
type Chapter struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CourseID     string `gorm:"type:text;not null;uniqueIndex:idx_chapter_course_order" json:"courseId"`
	ChapterOrder int    `gorm:"not null;uniqueIndex:idx_chapter_course_order" json:"chapterOrder"`
	TitleEn      string `json:"titleEn"`
	TitleAr      string `json:"titleAr"`
	IsFree       bool   `gorm:"default:false" json:"isFree"`

	Lessons []Lesson `gorm:"foreignKey:ChapterID" json:"lessons,omitempty"`
}

type LessonType string

const (
	LessonVideo       LessonType = "video"
	LessonArticle     LessonType = "article"
	LessonInteractive LessonType = "interactive"
)

// ValidationType selects the local validator used when the grading oracle is
// unavailable.
type ValidationType string

const (
	ValidationExactMatch  ValidationType = "exact_match"
	ValidationOutputMatch ValidationType = "output_match"
	ValidationRegexMatch  ValidationType = "regex_match"
	ValidationContains    ValidationType = "contains"
)

// Lesson belongs to at most one chapter. Interactive lessons may live only in
// learning paths, in which case ChapterID is nil.
type Lesson struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ChapterID   *string    `gorm:"type:text;uniqueIndex:idx_lesson_chapter_order" json:"chapterId"`
	LessonOrder int        `gorm:"not null;default:0;uniqueIndex:idx_lesson_chapter_order" json:"lessonOrder"`
	Type        LessonType `gorm:"type:text;default:'video'" json:"type"`
	IsFree      bool       `gorm:"default:false" json:"isFree"`

	TitleEn   string `json:"titleEn"`
	TitleAr   string `json:"titleAr"`
	ContentEn string `gorm:"type:text" json:"contentEn"`
	ContentAr string `gorm:"type:text" json:"contentAr"`
	VideoURL  string `json:"videoUrl"`
	Duration  int    `json:"duration"` // seconds

	// Interactive coding challenge
	ProgrammingLanguage string         `json:"programmingLanguage"`
	ChallengeEn         string         `gorm:"type:text" json:"challengeEn"`
	ChallengeAr         string         `gorm:"type:text" json:"challengeAr"`
	StarterCode         string         `gorm:"type:text" json:"starterCode"`
	ReferenceSolution   string         `gorm:"type:text" json:"-"`
	ExpectedOutput      string         `gorm:"type:text" json:"-"`
	TestCases           datatypes.JSON `json:"-"`
	ValidationType      ValidationType `gorm:"type:text;default:'contains'" json:"validationType"`

	Chapter *Chapter `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
}

func (l Lesson) IsInteractive() bool {
	return l.Type == LessonInteractive
}
