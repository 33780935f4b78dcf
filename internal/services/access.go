package services

import (
	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
)

// AccessReason explains an AccessDecision. Unlocked and locked decisions use
// disjoint reasons.
type AccessReason string

const (
	ReasonAdminOverride  AccessReason = "admin-override"
	ReasonFreePreview    AccessReason = "free-preview"
	ReasonMember         AccessReason = "membership"
	ReasonPurchased      AccessReason = "purchased"
	ReasonAuthRequired   AccessReason = "authentication-required"
	ReasonMembershipLock AccessReason = "membership-required"
	ReasonProgression    AccessReason = "progression-required"
	ReasonPurchaseNeeded AccessReason = "purchase-required"
	ReasonUnassigned     AccessReason = "unassigned"
)

type AccessDecision struct {
	Unlocked bool         `json:"unlocked"`
	Reason   AccessReason `json:"reason"`
}

func unlocked(r AccessReason) AccessDecision { return AccessDecision{Unlocked: true, Reason: r} }
func locked(r AccessReason) AccessDecision   { return AccessDecision{Unlocked: false, Reason: r} }

// Err maps a locked decision to the error the HTTP layer should return:
// 401 when the learner must log in, 403 for every other lock.
func (d AccessDecision) Err() error {
	switch {
	case d.Unlocked:
		return nil
	case d.Reason == ReasonAuthRequired:
		return apperrors.Unauthorized("Login required to access this lesson")
	case d.Reason == ReasonMembershipLock:
		return apperrors.Forbidden("Upgrade your membership to access this lesson")
	case d.Reason == ReasonProgression:
		return apperrors.Forbidden("Complete the previous lesson first")
	case d.Reason == ReasonPurchaseNeeded:
		return apperrors.Forbidden("Purchase this course to access this lesson")
	default:
		return apperrors.Forbidden("This lesson is not available")
	}
}

// Learner is the caller as seen by the evaluator. A nil *Learner is an
// anonymous guest.
type Learner struct {
	ID      string
	IsAdmin bool
	Tier    models.MembershipTier
}

// HasAccess is the plain ordinal comparison of tiers.
func HasAccess(tier, required models.MembershipTier) bool {
	return tier >= required
}

// MembershipLocked applies the monetization rule: Free never opens non-free
// path content, even when the entry nominally requires Free.
func MembershipLocked(tier, required models.MembershipTier) bool {
	return !HasAccess(tier, required) || tier == models.TierFree
}

type PathAccessInput struct {
	Learner           *Learner
	IsFree            bool
	RequiredTier      models.MembershipTier
	IsFirst           bool // lowest order_number in the path
	PreviousCompleted bool // completion of the immediately preceding entry
}

// EvaluatePathAccess decides access to a lesson inside a learning path. The
// first matching rule wins.
func EvaluatePathAccess(in PathAccessInput) AccessDecision {
	if in.Learner != nil && in.Learner.IsAdmin {
		return unlocked(ReasonAdminOverride)
	}
	if in.IsFree && (in.Learner != nil || in.IsFirst) {
		return unlocked(ReasonFreePreview)
	}
	if in.Learner == nil {
		return locked(ReasonAuthRequired)
	}

	membershipLocked := MembershipLocked(in.Learner.Tier, in.RequiredTier)
	progressionLocked := !in.IsFirst && !in.PreviousCompleted

	switch {
	case membershipLocked:
		return locked(ReasonMembershipLock)
	case progressionLocked:
		return locked(ReasonProgression)
	default:
		return unlocked(ReasonMember)
	}
}

type CourseAccessInput struct {
	Learner       *Learner
	HasChapter    bool
	LessonIsFree  bool
	ChapterIsFree bool
	Purchased     bool // a paid purchase exists for the parent course
}

// EvaluateCourseAccess decides access to a chapter lesson. A lesson with no
// chapter cannot be resolved to a course and stays locked for non-admins.
func EvaluateCourseAccess(in CourseAccessInput) AccessDecision {
	if in.Learner != nil && in.Learner.IsAdmin {
		return unlocked(ReasonAdminOverride)
	}
	if !in.HasChapter {
		return locked(ReasonUnassigned)
	}
	if in.LessonIsFree || in.ChapterIsFree {
		return unlocked(ReasonFreePreview)
	}
	if in.Learner == nil {
		return locked(ReasonAuthRequired)
	}
	if in.Purchased {
		return unlocked(ReasonPurchased)
	}
	return locked(ReasonPurchaseNeeded)
}
