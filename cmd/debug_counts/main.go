package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
)

// debug_counts prints row counts and the live membership split, handy when
// checking a restored backup.
func main() {
	config.LoadConfig()
	logger.Init(config.AppConfig.Env)
	database.Connect()
	db := database.DB

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"courses", &models.Course{}},
		{"chapters", &models.Chapter{}},
		{"lessons", &models.Lesson{}},
		{"learning_paths", &models.LearningPath{}},
		{"path_lessons", &models.PathLesson{}},
		{"progress", &models.Progress{}},
		{"certificates", &models.Certificate{}},
		{"code_attempts", &models.CodeAttempt{}},
		{"purchases", &models.Purchase{}},
		{"payments", &models.Payment{}},
	}
	for _, t := range tables {
		var n int64
		if err := db.Model(t.model).Count(&n).Error; err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", t.name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", t.name, n)
	}

	var users []models.User
	if err := db.Select("id", "membership_tier", "membership_status", "membership_expires_at").Find(&users).Error; err != nil {
		logger.Fatal().Err(err).Msg("Failed to load users")
	}
	byTier := map[models.MembershipTier]int{}
	now := time.Now()
	for _, u := range users {
		byTier[u.EffectiveTier(now)]++
	}
	fmt.Fprintln(w)
	for _, tier := range []models.MembershipTier{models.TierFree, models.TierPro, models.TierVIP} {
		fmt.Fprintf(w, "effective %s\t%d\n", tier, byTier[tier])
	}
}
