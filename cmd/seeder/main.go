package main

import (
	"flag"
	"os"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/migrations"
	"github.com/akrammlh02/elearning-backend/internal/seeds"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
)

func main() {
	adminEmail := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email of the admin account to create or promote")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password for a newly created admin")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.AppConfig.Env)
	database.Connect()

	logger.Info().Msg("Running migrations (just in case)...")
	if err := database.AutoMigrate(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Migrations failed")
	}

	if *adminEmail != "" {
		if _, err := seeds.GetOrCreateAdmin(database.DB, *adminEmail, *adminPassword); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed admin")
		}
	}

	if err := seeds.SeedCatalog(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed catalog")
	}

	logger.Info().Msg("Seeding complete")
}
