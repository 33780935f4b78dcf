package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LessonRef struct {
	ID          string `json:"id"`
	PathID      string `json:"pathId"`
	OrderNumber int    `json:"orderNumber"`
	TitleEn     string `json:"titleEn"`
	TitleAr     string `json:"titleAr"`
}

type CompletionResult struct {
	CertificateIssued          bool                `json:"certificateIssued"`
	Certificate                *models.Certificate `json:"certificate,omitempty"`
	NextLesson                 *LessonRef          `json:"nextLesson"`
	NextLessonMembershipLocked bool                `json:"nextLessonMembershipLocked"`
}

// MarkComplete records the completion and runs the cascade: certificate
// issuance for chapter lessons, next-lesson lookup for path lessons. pathID
// may be empty, in which case the first path containing the lesson is used.
//
// Progress is the durable fact. An error from certificate issuance is
// returned after progress has been written; the check is safe to re-run.
func MarkComplete(ctx context.Context, db *gorm.DB, learner *Learner, lessonID, pathID string) (CompletionResult, error) {
	var result CompletionResult
	if learner == nil {
		return result, apperrors.Unauthorized("Login required")
	}

	var lesson models.Lesson
	if err := db.WithContext(ctx).Preload("Chapter").First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, apperrors.NotFound("Lesson not found")
		}
		return result, fmt.Errorf("load lesson: %w", err)
	}

	next, err := nextPathLesson(ctx, db, lesson.ID, pathID)
	if err != nil {
		return result, err
	}

	if err := upsertProgress(ctx, db, learner.ID, lesson.ID); err != nil {
		return result, err
	}

	if next != nil {
		result.NextLesson = &LessonRef{
			ID:          next.LessonID,
			PathID:      next.PathID,
			OrderNumber: next.OrderNumber,
			TitleEn:     next.Lesson.TitleEn,
			TitleAr:     next.Lesson.TitleAr,
		}
		result.NextLessonMembershipLocked = !learner.IsAdmin && !next.Lesson.IsFree &&
			MembershipLocked(learner.Tier, next.RequiredTier)
	}

	if lesson.Chapter != nil {
		cert, err := IssueCertificateIfComplete(ctx, db, learner.ID, lesson.Chapter.CourseID)
		if err != nil {
			return result, err
		}
		if cert != nil {
			result.CertificateIssued = true
			result.Certificate = cert
		}
	}

	return result, nil
}

func upsertProgress(ctx context.Context, db *gorm.DB, clientID, lessonID string) error {
	now := time.Now()
	p := models.Progress{
		ClientID:    clientID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// nextPathLesson returns the entry following lessonID in its path, or nil.
func nextPathLesson(ctx context.Context, db *gorm.DB, lessonID, pathID string) (*models.PathLesson, error) {
	var current models.PathLesson
	q := db.WithContext(ctx).Where("lesson_id = ?", lessonID)
	if pathID != "" {
		q = q.Where("path_id = ?", pathID)
	}
	if err := q.Order("created_at ASC").First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if pathID != "" {
				return nil, apperrors.NotFound("Lesson not found in this path")
			}
			return nil, nil
		}
		return nil, fmt.Errorf("load path entry: %w", err)
	}

	var next models.PathLesson
	err := db.WithContext(ctx).Preload("Lesson").
		Where("path_id = ? AND order_number > ?", current.PathID, current.OrderNumber).
		Order("order_number ASC").
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load next path entry: %w", err)
	}
	return &next, nil
}

// CourseCompletion counts the lessons of a course and how many of them the
// client completed.
func CourseCompletion(ctx context.Context, db *gorm.DB, clientID, courseID string) (completed, total int64, err error) {
	err = db.WithContext(ctx).Model(&models.Lesson{}).
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("chapters.course_id = ?", courseID).
		Count(&total).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count course lessons: %w", err)
	}

	err = db.WithContext(ctx).Model(&models.Progress{}).
		Joins("JOIN lessons ON lessons.id = progress.lesson_id AND lessons.deleted_at IS NULL").
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("progress.client_id = ? AND progress.completed = ? AND chapters.course_id = ?", clientID, true, courseID).
		Count(&completed).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count completed lessons: %w", err)
	}
	return completed, total, nil
}

// IssueCertificateIfComplete creates the certificate for (client, course)
// once every lesson is completed. It returns the new certificate, or nil when
// the course is incomplete or already certified. The unique index on
// (client_id, course_id) keeps concurrent calls to one row.
func IssueCertificateIfComplete(ctx context.Context, db *gorm.DB, clientID, courseID string) (*models.Certificate, error) {
	completed, total, err := CourseCompletion(ctx, db, clientID, courseID)
	if err != nil {
		return nil, err
	}
	if total == 0 || completed < total {
		return nil, nil
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Certificate{}).
		Where("client_id = ? AND course_id = ?", clientID, courseID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check certificate: %w", err)
	}
	if existing > 0 {
		return nil, nil
	}

	now := time.Now()
	cert := models.Certificate{
		ClientID:          clientID,
		CourseID:          courseID,
		CertificateNumber: newCertificateNumber(now),
		URL:               CertificateURL(clientID, courseID),
		IssuedAt:          now,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&cert)
	if res.Error != nil {
		return nil, fmt.Errorf("create certificate: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	logger.Info().
		Str("user_id", clientID).
		Str("course_id", courseID).
		Str("certificate", cert.CertificateNumber).
		Msg("Certificate issued")

	if DefaultMailer != nil {
		go DefaultMailer.NotifyCertificateIssued(db, cert)
	}
	return &cert, nil
}

// CertificateURL is derived from the pair so it is stable across re-issues.
func CertificateURL(clientID, courseID string) string {
	base := ""
	if config.AppConfig != nil {
		base = strings.TrimRight(config.AppConfig.CertificateBaseURL, "/")
	}
	return fmt.Sprintf("%s/certificates/%s/%s", base, clientID, courseID)
}

func newCertificateNumber(now time.Time) string {
	return fmt.Sprintf("CERT-%s-%s", now.Format("2006"), strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")))
}
