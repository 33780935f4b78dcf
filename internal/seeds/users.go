package seeds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GetOrCreateAdmin returns the admin with the given email, creating it or
// promoting an existing account as needed.
func GetOrCreateAdmin(db *gorm.DB, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if !user.IsAdmin() {
			if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
				return models.User{}, fmt.Errorf("promote %s: %w", email, err)
			}
			user.Role = models.RoleAdmin
			logger.Info().Str("email", email).Msg("Promoted existing user to admin")
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.User{}, err
	}

	if len(password) < 8 {
		return models.User{}, errors.New("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user = models.User{
		Name:     "Academy Admin",
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	logger.Info().Str("email", email).Msg("Admin user created")
	return user, nil
}
