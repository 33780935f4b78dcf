package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"gorm.io/gorm"
)

// LoadLearner re-reads the user on every call so that tier, expiry and role
// are never taken from a stale session. An empty userID is a guest (nil).
func LoadLearner(ctx context.Context, db *gorm.DB, userID string) (*Learner, error) {
	if userID == "" {
		return nil, nil
	}
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("User not found")
		}
		return nil, fmt.Errorf("load learner: %w", err)
	}
	if user.IsBlocked {
		return nil, apperrors.Forbidden("Account is blocked")
	}
	return &Learner{
		ID:      user.ID,
		IsAdmin: user.IsAdmin(),
		Tier:    user.EffectiveTier(time.Now()),
	}, nil
}

// PathLessonState is a path entry together with the caller's decision.
type PathLessonState struct {
	Entry    models.PathLesson `json:"entry"`
	Decision AccessDecision    `json:"access"`
}

// EvaluatePathEntries decides every entry of a path in one pass. entries must
// be sorted by OrderNumber; completed holds the learner's completed lesson ids.
func EvaluatePathEntries(learner *Learner, entries []models.PathLesson, completed map[string]bool) []AccessDecision {
	out := make([]AccessDecision, len(entries))
	for i, e := range entries {
		in := PathAccessInput{
			Learner:      learner,
			IsFree:       e.Lesson.IsFree,
			RequiredTier: e.RequiredTier,
			IsFirst:      i == 0,
		}
		if i > 0 {
			in.PreviousCompleted = completed[entries[i-1].LessonID]
		}
		out[i] = EvaluatePathAccess(in)
	}
	return out
}

// LoadPath returns a path with its entries ordered. Unpublished paths are
// visible to admins only.
func LoadPath(ctx context.Context, db *gorm.DB, learner *Learner, pathID string) (*models.LearningPath, error) {
	var path models.LearningPath
	err := db.WithContext(ctx).
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_number ASC") }).
		Preload("Lessons.Lesson").
		Where("id = ? OR slug = ?", pathID, pathID).
		First(&path).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Learning path not found")
		}
		return nil, fmt.Errorf("load path: %w", err)
	}
	if !path.IsPublished && (learner == nil || !learner.IsAdmin) {
		return nil, apperrors.NotFound("Learning path not found")
	}
	return &path, nil
}

// CompletedLessonIDs returns the subset of lessonIDs the learner completed.
func CompletedLessonIDs(ctx context.Context, db *gorm.DB, learner *Learner, lessonIDs []string) (map[string]bool, error) {
	done := make(map[string]bool)
	if learner == nil || len(lessonIDs) == 0 {
		return done, nil
	}
	var ids []string
	err := db.WithContext(ctx).Model(&models.Progress{}).
		Where("client_id = ? AND completed = ? AND lesson_id IN ?", learner.ID, true, lessonIDs).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// PathStates loads a path and evaluates all its entries for the learner.
func PathStates(ctx context.Context, db *gorm.DB, learner *Learner, pathID string) (*models.LearningPath, []PathLessonState, error) {
	path, err := LoadPath(ctx, db, learner, pathID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(path.Lessons))
	for i, e := range path.Lessons {
		ids[i] = e.LessonID
	}
	completed, err := CompletedLessonIDs(ctx, db, learner, ids)
	if err != nil {
		return nil, nil, err
	}
	decisions := EvaluatePathEntries(learner, path.Lessons, completed)
	states := make([]PathLessonState, len(path.Lessons))
	for i := range path.Lessons {
		states[i] = PathLessonState{Entry: path.Lessons[i], Decision: decisions[i]}
	}
	return path, states, nil
}

// PathLessonAccess evaluates a single lesson of a path.
func PathLessonAccess(ctx context.Context, db *gorm.DB, learner *Learner, pathID, lessonID string) (*PathLessonState, error) {
	_, states, err := PathStates(ctx, db, learner, pathID)
	if err != nil {
		return nil, err
	}
	for i := range states {
		if states[i].Entry.LessonID == lessonID {
			return &states[i], nil
		}
	}
	return nil, apperrors.NotFound("Lesson not found in this path")
}

// CourseLessonState is a chapter lesson together with the caller's decision.
type CourseLessonState struct {
	Lesson   models.Lesson  `json:"lesson"`
	CourseID string         `json:"courseId"`
	Decision AccessDecision `json:"access"`
}

// HasPaidPurchase reports whether the learner holds a paid purchase for the course.
func HasPaidPurchase(ctx context.Context, db *gorm.DB, learner *Learner, courseID string) (bool, error) {
	if learner == nil || courseID == "" {
		return false, nil
	}
	var count int64
	err := db.WithContext(ctx).Model(&models.Purchase{}).
		Where("client_id = ? AND course_id = ? AND paid = ?", learner.ID, courseID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("load purchase: %w", err)
	}
	return count > 0, nil
}

// CourseLessonAccess evaluates a lesson reached through the course hierarchy.
func CourseLessonAccess(ctx context.Context, db *gorm.DB, learner *Learner, lessonID string) (*CourseLessonState, error) {
	var lesson models.Lesson
	if err := db.WithContext(ctx).Preload("Chapter").First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Lesson not found")
		}
		return nil, fmt.Errorf("load lesson: %w", err)
	}

	state := &CourseLessonState{Lesson: lesson}
	in := CourseAccessInput{Learner: learner, LessonIsFree: lesson.IsFree}
	if lesson.Chapter != nil {
		var course models.Course
		if err := db.WithContext(ctx).Select("id", "is_published").First(&course, "id = ?", lesson.Chapter.CourseID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("load course: %w", err)
			}
		} else {
			if !course.IsPublished && (learner == nil || !learner.IsAdmin) {
				return nil, apperrors.NotFound("Lesson not found")
			}
			state.CourseID = course.ID
			in.HasChapter = true
			in.ChapterIsFree = lesson.Chapter.IsFree
		}
	}

	if in.HasChapter && !in.LessonIsFree && !in.ChapterIsFree {
		paid, err := HasPaidPurchase(ctx, db, learner, state.CourseID)
		if err != nil {
			return nil, err
		}
		in.Purchased = paid
	}

	state.Decision = EvaluateCourseAccess(in)
	return state, nil
}

// CourseDecisions evaluates every lesson of a loaded course (chapters and
// lessons preloaded) without further queries.
func CourseDecisions(learner *Learner, course models.Course, purchased bool) map[string]AccessDecision {
	out := make(map[string]AccessDecision)
	for _, ch := range course.Chapters {
		for _, l := range ch.Lessons {
			out[l.ID] = EvaluateCourseAccess(CourseAccessInput{
				Learner:       learner,
				HasChapter:    true,
				LessonIsFree:  l.IsFree,
				ChapterIsFree: ch.IsFree,
				Purchased:     purchased,
			})
		}
	}
	return out
}
