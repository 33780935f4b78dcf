package services

import (
	"errors"
	"testing"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	admin  = &Learner{ID: "admin", IsAdmin: true, Tier: models.TierFree}
	freeL  = &Learner{ID: "free", Tier: models.TierFree}
	proL   = &Learner{ID: "pro", Tier: models.TierPro}
	vipL   = &Learner{ID: "vip", Tier: models.TierVIP}
	tiers  = []models.MembershipTier{models.TierFree, models.TierPro, models.TierVIP}
	bools  = []bool{false, true}
	anyone = []*Learner{nil, admin, freeL, proL, vipL}
)

func TestEvaluatePathAccess_AdminAlwaysUnlocked(t *testing.T) {
	for _, req := range tiers {
		for _, first := range bools {
			for _, prev := range bools {
				for _, free := range bools {
					d := EvaluatePathAccess(PathAccessInput{
						Learner: admin, IsFree: free, RequiredTier: req, IsFirst: first, PreviousCompleted: prev,
					})
					assert.Equal(t, AccessDecision{Unlocked: true, Reason: ReasonAdminOverride}, d)
				}
			}
		}
	}
}

func TestEvaluatePathAccess_FreeLessons(t *testing.T) {
	for _, l := range anyone {
		for _, first := range bools {
			for _, prev := range bools {
				d := EvaluatePathAccess(PathAccessInput{
					Learner: l, IsFree: true, RequiredTier: models.TierVIP, IsFirst: first, PreviousCompleted: prev,
				})
				if l == nil && !first {
					assert.False(t, d.Unlocked)
					assert.Equal(t, ReasonAuthRequired, d.Reason)
					continue
				}
				assert.True(t, d.Unlocked)
			}
		}
	}
}

func TestEvaluatePathAccess_GuestOnSecondFreeLessonNeedsLogin(t *testing.T) {
	d := EvaluatePathAccess(PathAccessInput{IsFree: true, IsFirst: false, RequiredTier: models.TierFree})

	assert.False(t, d.Unlocked)
	assert.Equal(t, ReasonAuthRequired, d.Reason)
	assert.True(t, errors.Is(d.Err(), apperrors.ErrUnauthorized))
}

func TestEvaluatePathAccess_GuestOnFirstFreeLesson(t *testing.T) {
	d := EvaluatePathAccess(PathAccessInput{IsFree: true, IsFirst: true, RequiredTier: models.TierPro})
	assert.Equal(t, AccessDecision{Unlocked: true, Reason: ReasonFreePreview}, d)
	assert.NoError(t, d.Err())
}

func TestEvaluatePathAccess_FreeTierNeverOpensPaidLessons(t *testing.T) {
	for _, req := range tiers {
		for _, first := range bools {
			for _, prev := range bools {
				d := EvaluatePathAccess(PathAccessInput{
					Learner: freeL, RequiredTier: req, IsFirst: first, PreviousCompleted: prev,
				})
				assert.False(t, d.Unlocked, "required=%d first=%v prev=%v", req, first, prev)
				assert.Equal(t, ReasonMembershipLock, d.Reason)
				assert.True(t, errors.Is(d.Err(), apperrors.ErrForbidden))
			}
		}
	}
}

func TestEvaluatePathAccess_TierComparison(t *testing.T) {
	d := EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierVIP, IsFirst: true})
	assert.Equal(t, ReasonMembershipLock, d.Reason)

	d = EvaluatePathAccess(PathAccessInput{Learner: vipL, RequiredTier: models.TierPro, IsFirst: true})
	assert.Equal(t, AccessDecision{Unlocked: true, Reason: ReasonMember}, d)

	d = EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierFree, IsFirst: true})
	assert.True(t, d.Unlocked)
}

func TestEvaluatePathAccess_MembershipReportedBeforeProgression(t *testing.T) {
	d := EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierVIP, IsFirst: false, PreviousCompleted: false})
	assert.Equal(t, ReasonMembershipLock, d.Reason)
}

func TestEvaluatePathAccess_Progression(t *testing.T) {
	first := EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierPro, IsFirst: true})
	assert.True(t, first.Unlocked)

	second := EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierPro, PreviousCompleted: true})
	assert.True(t, second.Unlocked)

	third := EvaluatePathAccess(PathAccessInput{Learner: proL, RequiredTier: models.TierPro, PreviousCompleted: false})
	assert.False(t, third.Unlocked)
	assert.Equal(t, ReasonProgression, third.Reason)
}

func TestEvaluatePathAccess_GuestOnPaidLesson(t *testing.T) {
	d := EvaluatePathAccess(PathAccessInput{RequiredTier: models.TierPro, IsFirst: true})
	assert.Equal(t, ReasonAuthRequired, d.Reason)
}

func TestMembershipLocked(t *testing.T) {
	assert.True(t, MembershipLocked(models.TierFree, models.TierFree))
	assert.False(t, MembershipLocked(models.TierPro, models.TierFree))
	assert.False(t, MembershipLocked(models.TierPro, models.TierPro))
	assert.True(t, MembershipLocked(models.TierPro, models.TierVIP))
	assert.True(t, HasAccess(models.TierFree, models.TierFree))
}

func TestEvaluateCourseAccess(t *testing.T) {
	t.Run("purchase opens every lesson regardless of tier", func(t *testing.T) {
		for _, l := range []*Learner{freeL, proL, vipL} {
			d := EvaluateCourseAccess(CourseAccessInput{Learner: l, HasChapter: true, Purchased: true})
			assert.Equal(t, AccessDecision{Unlocked: true, Reason: ReasonPurchased}, d)
		}
	})

	t.Run("membership alone does not open course lessons", func(t *testing.T) {
		d := EvaluateCourseAccess(CourseAccessInput{Learner: vipL, HasChapter: true})
		assert.Equal(t, ReasonPurchaseNeeded, d.Reason)
		assert.True(t, errors.Is(d.Err(), apperrors.ErrForbidden))
	})

	t.Run("free lesson or chapter", func(t *testing.T) {
		assert.True(t, EvaluateCourseAccess(CourseAccessInput{HasChapter: true, LessonIsFree: true}).Unlocked)
		assert.True(t, EvaluateCourseAccess(CourseAccessInput{Learner: freeL, HasChapter: true, ChapterIsFree: true}).Unlocked)
	})

	t.Run("guest", func(t *testing.T) {
		d := EvaluateCourseAccess(CourseAccessInput{HasChapter: true})
		assert.Equal(t, ReasonAuthRequired, d.Reason)
	})

	t.Run("admin", func(t *testing.T) {
		d := EvaluateCourseAccess(CourseAccessInput{Learner: admin})
		assert.Equal(t, ReasonAdminOverride, d.Reason)
	})

	t.Run("orphan lesson is fail-closed", func(t *testing.T) {
		d := EvaluateCourseAccess(CourseAccessInput{Learner: vipL, LessonIsFree: true, Purchased: true})
		assert.False(t, d.Unlocked)
		assert.Equal(t, ReasonUnassigned, d.Reason)
	})
}
