package services

import (
	"context"
	"testing"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	logger.Init("test")
}

var ctx = context.Background()

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, id string, role models.Role, tier models.MembershipTier) models.User {
	t.Helper()
	u := models.User{
		ID:    id,
		Name:  id,
		Email: id + "@example.com",
		Role:  role,
	}
	if tier != models.TierFree {
		expires := time.Now().Add(72 * time.Hour)
		u.MembershipTier = tier
		u.MembershipStatus = models.MembershipActive
		u.MembershipExpiresAt = &expires
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// courseFixture is a published course with one chapter of n lessons.
type courseFixture struct {
	Course  models.Course
	Chapter models.Chapter
	Lessons []models.Lesson
}

func createCourse(t *testing.T, db *gorm.DB, id string, n int) courseFixture {
	t.Helper()
	f := courseFixture{
		Course:  models.Course{ID: id, TitleEn: "Course " + id, TitleAr: "دورة", Price: 20, IsPublished: true},
		Chapter: models.Chapter{ID: id + "-ch1", CourseID: id, ChapterOrder: 1, TitleEn: "Basics"},
	}
	require.NoError(t, db.Create(&f.Course).Error)
	require.NoError(t, db.Create(&f.Chapter).Error)
	for i := 1; i <= n; i++ {
		chapterID := f.Chapter.ID
		l := models.Lesson{
			ID:          id + "-l" + string(rune('0'+i)),
			ChapterID:   &chapterID,
			LessonOrder: i,
			Type:        models.LessonVideo,
			TitleEn:     "Lesson",
		}
		require.NoError(t, db.Create(&l).Error)
		f.Lessons = append(f.Lessons, l)
	}
	return f
}

// pathFixture is a published path of interactive lessons that belong to no
// chapter.
type pathFixture struct {
	Path    models.LearningPath
	Lessons []models.Lesson
}

func createPath(t *testing.T, db *gorm.DB, id string, tiers ...models.MembershipTier) pathFixture {
	t.Helper()
	f := pathFixture{Path: models.LearningPath{ID: id, Slug: id, TitleEn: "Path " + id, RequiredTier: models.TierPro, IsPublished: true}}
	require.NoError(t, db.Create(&f.Path).Error)
	for i, tier := range tiers {
		l := models.Lesson{
			ID:                  id + "-i" + string(rune('1'+i)),
			Type:                models.LessonInteractive,
			TitleEn:             "Challenge",
			ProgrammingLanguage: "python",
			ChallengeEn:         "Print hello",
			ReferenceSolution:   `print("hello")`,
			ExpectedOutput:      "hello",
			ValidationType:      models.ValidationOutputMatch,
		}
		require.NoError(t, db.Create(&l).Error)
		require.NoError(t, db.Create(&models.PathLesson{
			PathID:       id,
			LessonID:     l.ID,
			OrderNumber:  (i + 1) * 10,
			RequiredTier: tier,
		}).Error)
		f.Lessons = append(f.Lessons, l)
	}
	return f
}

func learnerFor(t *testing.T, db *gorm.DB, id string) *Learner {
	t.Helper()
	l, err := LoadLearner(ctx, db, id)
	require.NoError(t, err)
	return l
}
