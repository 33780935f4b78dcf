package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// MembershipTier is ordinal: a higher tier includes everything below it.
type MembershipTier int

const (
	TierFree MembershipTier = 0
	TierPro  MembershipTier = 1
	TierVIP  MembershipTier = 2
)

func (t MembershipTier) String() string {
	switch t {
	case TierPro:
		return "pro"
	case TierVIP:
		return "vip"
	default:
		return "free"
	}
}

// ParseTier accepts the names used by the API ("free", "pro", "vip").
func ParseTier(s string) (MembershipTier, bool) {
	switch s {
	case "free":
		return TierFree, true
	case "pro":
		return TierPro, true
	case "vip":
		return TierVIP, true
	}
	return TierFree, false
}

// The API speaks tier names; the database stores the ordinal.
func (t MembershipTier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *MembershipTier) UnmarshalText(b []byte) error {
	tier, ok := ParseTier(string(b))
	if !ok {
		return fmt.Errorf("unknown membership tier %q", b)
	}
	*t = tier
	return nil
}

type MembershipStatus string

const (
	MembershipNone    MembershipStatus = "NONE"
	MembershipPending MembershipStatus = "PENDING"
	MembershipActive  MembershipStatus = "ACTIVE"
	MembershipExpired MembershipStatus = "EXPIRED"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name              string `json:"name"`
	Email             string `gorm:"uniqueIndex" json:"email"`
	Image             string `json:"image"`
	Phone             string `json:"phone"`
	PreferredLanguage string `gorm:"default:'en'" json:"preferredLanguage"` // en, ar
	IsBlocked         bool   `gorm:"default:false" json:"isBlocked"`

	Role Role `gorm:"type:text;default:'CLIENT'" json:"role"`

	MembershipTier      MembershipTier   `gorm:"default:0" json:"membershipTier"`
	MembershipStatus    MembershipStatus `gorm:"type:text;default:'NONE'" json:"membershipStatus"`
	MembershipExpiresAt *time.Time       `json:"membershipExpiresAt"`

	GoogleID string `gorm:"index" json:"-"`
	GithubID string `gorm:"index" json:"-"`
	Password string `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectiveTier is the tier the user can use right now. An expired or
// inactive membership counts as Free regardless of the stored tier.
func (u User) EffectiveTier(now time.Time) MembershipTier {
	if u.MembershipTier == TierFree || u.MembershipStatus != MembershipActive {
		return TierFree
	}
	if u.MembershipExpiresAt != nil && !now.Before(*u.MembershipExpiresAt) {
		return TierFree
	}
	return u.MembershipTier
}
