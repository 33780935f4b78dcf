package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email of the user to promote")
	demote := flag.Bool("demote", false, "turn the admin back into a client")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: promote_admin -email user@example.com [-demote]")
		os.Exit(2)
	}

	config.LoadConfig()
	logger.Init(config.AppConfig.Env)
	database.Connect()

	role := models.RoleAdmin
	if *demote {
		role = models.RoleClient
	}

	res := database.DB.Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).
		Update("role", role)
	if res.Error != nil {
		logger.Fatal().Err(res.Error).Msg("Failed to update user role")
	}
	if res.RowsAffected == 0 {
		logger.Fatal().Str("email", *email).Msg("User not found")
	}

	fmt.Printf("Set role of %s to %s.\n", *email, role)
}
