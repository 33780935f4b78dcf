package services

import (
	"errors"
	"testing"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestMarkComplete_CertificateAfterLastLesson(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 3)
	learner := learnerFor(t, db, "amal")

	for _, l := range c.Lessons[:2] {
		res, err := MarkComplete(ctx, db, learner, l.ID, "")
		require.NoError(t, err)
		assert.False(t, res.CertificateIssued)
	}
	assert.Zero(t, countRows(t, db, &models.Certificate{}, "client_id = ?", "amal"))

	res, err := MarkComplete(ctx, db, learner, c.Lessons[2].ID, "")
	require.NoError(t, err)
	assert.True(t, res.CertificateIssued)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, CertificateURL("amal", "go101"), res.Certificate.URL)
	assert.NotEmpty(t, res.Certificate.CertificateNumber)

	res, err = MarkComplete(ctx, db, learner, c.Lessons[2].ID, "")
	require.NoError(t, err)
	assert.False(t, res.CertificateIssued)

	res, err = MarkComplete(ctx, db, learner, c.Lessons[0].ID, "")
	require.NoError(t, err)
	assert.False(t, res.CertificateIssued)

	assert.Equal(t, int64(1), countRows(t, db, &models.Certificate{}, "client_id = ? AND course_id = ?", "amal", "go101"))
}

func TestMarkComplete_Idempotent(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 1)
	learner := learnerFor(t, db, "amal")

	for i := 0; i < 2; i++ {
		_, err := MarkComplete(ctx, db, learner, c.Lessons[0].ID, "")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), countRows(t, db, &models.Progress{}, "client_id = ? AND lesson_id = ?", "amal", c.Lessons[0].ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Certificate{}, "client_id = ?", "amal"))
}

func TestIssueCertificateIfComplete_AlreadyCertified(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 1)
	learner := learnerFor(t, db, "amal")

	_, err := MarkComplete(ctx, db, learner, c.Lessons[0].ID, "")
	require.NoError(t, err)

	cert, err := IssueCertificateIfComplete(ctx, db, "amal", "go101")
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestCourseCompletion_IgnoresDeletedLessons(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 2)
	learner := learnerFor(t, db, "amal")

	_, err := MarkComplete(ctx, db, learner, c.Lessons[0].ID, "")
	require.NoError(t, err)
	require.NoError(t, db.Delete(&c.Lessons[0]).Error)

	done, total, err := CourseCompletion(ctx, db, "amal", "go101")
	require.NoError(t, err)
	assert.Equal(t, int64(0), done)
	assert.Equal(t, int64(1), total)
}

func TestMarkComplete_NextLessonUpsell(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "pro", models.RoleClient, models.TierPro)
	createUser(t, db, "admin", models.RoleAdmin, models.TierFree)
	p := createPath(t, db, "py", models.TierPro, models.TierVIP, models.TierPro)

	res, err := MarkComplete(ctx, db, learnerFor(t, db, "pro"), p.Lessons[0].ID, "py")
	require.NoError(t, err)
	require.NotNil(t, res.NextLesson)
	assert.Equal(t, p.Lessons[1].ID, res.NextLesson.ID)
	assert.Equal(t, 20, res.NextLesson.OrderNumber)
	assert.True(t, res.NextLessonMembershipLocked)
	assert.False(t, res.CertificateIssued)

	res, err = MarkComplete(ctx, db, learnerFor(t, db, "admin"), p.Lessons[0].ID, "")
	require.NoError(t, err)
	require.NotNil(t, res.NextLesson)
	assert.False(t, res.NextLessonMembershipLocked)

	res, err = MarkComplete(ctx, db, learnerFor(t, db, "pro"), p.Lessons[2].ID, "py")
	require.NoError(t, err)
	assert.Nil(t, res.NextLesson)
}

func TestMarkComplete_FreeNextLessonIsNotUpsold(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "free", models.RoleClient, models.TierFree)
	p := createPath(t, db, "py", models.TierPro, models.TierPro)
	require.NoError(t, db.Model(&models.Lesson{}).Where("id = ?", p.Lessons[1].ID).Update("is_free", true).Error)

	res, err := MarkComplete(ctx, db, learnerFor(t, db, "free"), p.Lessons[0].ID, "py")
	require.NoError(t, err)
	require.NotNil(t, res.NextLesson)
	assert.False(t, res.NextLessonMembershipLocked)
}

func TestMarkComplete_UnassignedLessonStillRecorded(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	require.NoError(t, db.Create(&models.Lesson{ID: "loose", Type: models.LessonArticle}).Error)

	res, err := MarkComplete(ctx, db, learnerFor(t, db, "amal"), "loose", "")
	require.NoError(t, err)
	assert.False(t, res.CertificateIssued)
	assert.Nil(t, res.NextLesson)
	assert.Equal(t, int64(1), countRows(t, db, &models.Progress{}, "lesson_id = ? AND completed = ?", "loose", true))
}

func TestMarkComplete_Errors(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "amal", models.RoleClient, models.TierFree)
	c := createCourse(t, db, "go101", 1)
	createPath(t, db, "py", models.TierPro)

	_, err := MarkComplete(ctx, db, nil, c.Lessons[0].ID, "")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = MarkComplete(ctx, db, learnerFor(t, db, "amal"), "missing", "")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = MarkComplete(ctx, db, learnerFor(t, db, "amal"), c.Lessons[0].ID, "py")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCertificateURL(t *testing.T) {
	prev := config.AppConfig
	t.Cleanup(func() { config.AppConfig = prev })

	config.AppConfig = &config.Config{CertificateBaseURL: "https://academy.example/"}
	assert.Equal(t, "https://academy.example/certificates/u1/c1", CertificateURL("u1", "c1"))
	assert.Equal(t, CertificateURL("u1", "c1"), CertificateURL("u1", "c1"))
}

func TestNewCertificateNumber(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a, b := newCertificateNumber(at), newCertificateNumber(at)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^CERT-2026-[0-9A-F]{32}$`, a)
}
