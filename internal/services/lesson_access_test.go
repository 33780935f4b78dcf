package services

import (
	"errors"
	"testing"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLearner_ReadsTierFresh(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "pro", models.RoleClient, models.TierPro)

	l := learnerFor(t, db, "pro")
	assert.Equal(t, models.TierPro, l.Tier)

	// expiry moves into the past without the status being touched
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", "pro").Update("membership_expires_at", past).Error)

	l = learnerFor(t, db, "pro")
	assert.Equal(t, models.TierFree, l.Tier)
}

func TestLoadLearner_GuestAndUnknown(t *testing.T) {
	db := newTestDB(t)

	l, err := LoadLearner(ctx, db, "")
	assert.NoError(t, err)
	assert.Nil(t, l)

	_, err = LoadLearner(ctx, db, "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestPathLessonAccess_ProgressionScenario(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "pro", models.RoleClient, models.TierPro)
	p := createPath(t, db, "py", models.TierPro, models.TierPro, models.TierPro)
	learner := learnerFor(t, db, "pro")

	_, err := MarkComplete(ctx, db, learner, p.Lessons[0].ID, "py")
	require.NoError(t, err)

	l2, err := PathLessonAccess(ctx, db, learner, "py", p.Lessons[1].ID)
	require.NoError(t, err)
	assert.True(t, l2.Decision.Unlocked)

	l3, err := PathLessonAccess(ctx, db, learner, "py", p.Lessons[2].ID)
	require.NoError(t, err)
	assert.False(t, l3.Decision.Unlocked)
	assert.Equal(t, ReasonProgression, l3.Decision.Reason)

	_, err = MarkComplete(ctx, db, learner, p.Lessons[1].ID, "py")
	require.NoError(t, err)

	l3, err = PathLessonAccess(ctx, db, learner, "py", p.Lessons[2].ID)
	require.NoError(t, err)
	assert.True(t, l3.Decision.Unlocked)
}

func TestPathLessonAccess_GuestOnSecondFreeLesson(t *testing.T) {
	db := newTestDB(t)
	p := createPath(t, db, "py", models.TierPro, models.TierPro)
	require.NoError(t, db.Model(&models.Lesson{}).Where("id IN ?", []string{p.Lessons[0].ID, p.Lessons[1].ID}).Update("is_free", true).Error)

	first, err := PathLessonAccess(ctx, db, nil, "py", p.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonFreePreview, first.Decision.Reason)

	second, err := PathLessonAccess(ctx, db, nil, "py", p.Lessons[1].ID)
	require.NoError(t, err)
	assert.False(t, second.Decision.Unlocked)
	assert.Equal(t, ReasonAuthRequired, second.Decision.Reason)
}

func TestPathLessonAccess_FreeTierLockedEvenWhenPathRequiresFree(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "free", models.RoleClient, models.TierFree)
	p := createPath(t, db, "py", models.TierFree, models.TierFree)
	learner := learnerFor(t, db, "free")

	_, states, err := PathStates(ctx, db, learner, "py")
	require.NoError(t, err)
	require.Len(t, states, len(p.Lessons))
	for _, s := range states {
		assert.False(t, s.Decision.Unlocked)
		assert.Equal(t, ReasonMembershipLock, s.Decision.Reason)
	}
}

func TestPathLessonAccess_AdminAndPublication(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "admin", models.RoleAdmin, models.TierFree)
	createUser(t, db, "vip", models.RoleClient, models.TierVIP)
	p := createPath(t, db, "draft", models.TierVIP, models.TierVIP)
	require.NoError(t, db.Model(&models.LearningPath{}).Where("id = ?", "draft").Update("is_published", false).Error)

	_, err := PathLessonAccess(ctx, db, learnerFor(t, db, "vip"), "draft", p.Lessons[0].ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	s, err := PathLessonAccess(ctx, db, learnerFor(t, db, "admin"), "draft", p.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonAdminOverride, s.Decision.Reason)
}

func TestPathLessonAccess_BySlugAndUnknownLesson(t *testing.T) {
	db := newTestDB(t)
	createPath(t, db, "py", models.TierPro)

	_, err := PathLessonAccess(ctx, db, nil, "py", "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = PathLessonAccess(ctx, db, nil, "nope", "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCourseLessonAccess_PurchaseOpensAllLessons(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "free", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 3)
	learner := learnerFor(t, db, "free")

	s, err := CourseLessonAccess(ctx, db, learner, c.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonPurchaseNeeded, s.Decision.Reason)

	now := time.Now()
	require.NoError(t, db.Create(&models.Purchase{ClientID: "free", CourseID: "go101", Paid: true, PaidAt: &now}).Error)

	for _, l := range c.Lessons {
		s, err := CourseLessonAccess(ctx, db, learner, l.ID)
		require.NoError(t, err)
		assert.True(t, s.Decision.Unlocked)
		assert.Equal(t, ReasonPurchased, s.Decision.Reason)
		assert.Equal(t, "go101", s.CourseID)
	}
}

func TestCourseLessonAccess_UnpaidPurchaseDoesNotCount(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "vip", models.RoleClient, models.TierVIP)
	c := createCourse(t, db, "go101", 1)
	require.NoError(t, db.Create(&models.Purchase{ClientID: "vip", CourseID: "go101"}).Error)

	s, err := CourseLessonAccess(ctx, db, learnerFor(t, db, "vip"), c.Lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, s.Decision.Unlocked)
	assert.True(t, errors.Is(s.Decision.Err(), apperrors.ErrForbidden))
}

func TestCourseLessonAccess_FreeChapterAndGuest(t *testing.T) {
	db := newTestDB(t)
	c := createCourse(t, db, "go101", 2)

	s, err := CourseLessonAccess(ctx, db, nil, c.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonAuthRequired, s.Decision.Reason)

	require.NoError(t, db.Model(&models.Chapter{}).Where("id = ?", c.Chapter.ID).Update("is_free", true).Error)
	s, err = CourseLessonAccess(ctx, db, nil, c.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonFreePreview, s.Decision.Reason)
}

func TestCourseLessonAccess_OrphanLessonFailsClosed(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "vip", models.RoleClient, models.TierVIP)
	orphan := models.Lesson{ID: "orphan", Type: models.LessonArticle, IsFree: true}
	require.NoError(t, db.Create(&orphan).Error)

	s, err := CourseLessonAccess(ctx, db, learnerFor(t, db, "vip"), "orphan")
	require.NoError(t, err)
	assert.False(t, s.Decision.Unlocked)
	assert.Equal(t, ReasonUnassigned, s.Decision.Reason)

	_, err = CourseLessonAccess(ctx, db, nil, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
