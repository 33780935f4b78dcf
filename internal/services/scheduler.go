package services

import (
	"context"
	"time"

	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// MembershipExpirySpec runs the expiry sweep daily at 03:00.
const MembershipExpirySpec = "0 3 * * *"

// StartScheduler registers the periodic jobs and starts the cron runner. The
// caller stops it on shutdown.
func StartScheduler(db *gorm.DB) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(MembershipExpirySpec, func() {
		RunMembershipExpiry(db, time.Now())
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info().Str("spec", MembershipExpirySpec).Msg("Membership expiry scheduler started")
	return c, nil
}

func RunMembershipExpiry(db *gorm.DB, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := ExpireMemberships(ctx, db, at)
	if err != nil {
		logger.Error().Err(err).Msg("Membership expiry sweep failed")
		return
	}
	logger.Info().Int64("expired", n).Msg("Membership expiry sweep finished")
}
