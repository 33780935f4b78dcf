package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/akrammlh02/elearning-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

func validatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if len(password) < 8 || !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("password must be at least 8 characters long and contain an uppercase letter, a lowercase letter and a number")
	}
	return nil
}

// --- Local Auth ---

type RegisterInput struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required"`
	Phone             string `json:"phone"`
	PreferredLanguage string `json:"preferredLanguage" binding:"omitempty,oneof=en ar"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	lang := input.PreferredLanguage
	if lang == "" {
		lang = requestLang(c)
	}

	user := models.User{
		Name:              strings.TrimSpace(input.Name),
		Email:             strings.ToLower(input.Email),
		Phone:             input.Phone,
		PreferredLanguage: lang,
		Password:          string(hashedPassword),
		Role:              models.RoleClient,
		MembershipStatus:  models.MembershipNone,
	}

	if result := database.DB.Create(&user); result.Error != nil {
		var existing int64
		database.DB.Unscoped().Model(&models.User{}).Where("email = ?", user.Email).Count(&existing)
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please sign in instead."})
			return
		}
		logger.Error().Err(result.Error).Str("email", user.Email).Msg("Registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User registered successfully")

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if result := database.DB.Where("email = ?", strings.ToLower(input.Email)).First(&user); result.Error != nil {
		logger.Warn().Str("email", input.Email).Msg("Login failed: user not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		logger.Warn().Str("email", input.Email).Msg("Login failed: invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.IsBlocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the current token until it would have expired anyway.
func Logout(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*utils.Claims)
	if !ok || claims.GetJTI() == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
		return
	}

	if ttl := claims.Remaining(); ttl > 0 {
		if err := database.BlacklistToken(claims.GetJTI(), ttl); err != nil {
			logger.Error().Err(err).Str("jti", claims.GetJTI()).Msg("Failed to blacklist token")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me returns the caller's profile with the tier that currently applies.
func Me(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", c.GetString("userId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"effectiveTier": user.EffectiveTier(time.Now()).String(),
	})
}

type UpdateProfileInput struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone             *string `json:"phone" binding:"omitempty,max=30"`
	Image             *string `json:"image" binding:"omitempty,url"`
	PreferredLanguage *string `json:"preferredLanguage" binding:"omitempty,oneof=en ar"`
}

func UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Image != nil {
		updates["image"] = *input.Image
	}
	if input.PreferredLanguage != nil {
		updates["preferred_language"] = *input.PreferredLanguage
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	userID := c.GetString("userId")
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		respondError(c, err)
		return
	}
	Me(c)
}

// --- OAuth ---

var (
	googleOauthConfig *oauth2.Config
	githubOauthConfig *oauth2.Config
)

const oauthStateCookie = "oauth_state"

func InitOAuthConfig() {
	if config.AppConfig.GoogleClientID != "" {
		googleOauthConfig = &oauth2.Config{
			RedirectURL:  config.AppConfig.GoogleCallbackURL,
			ClientID:     config.AppConfig.GoogleClientID,
			ClientSecret: config.AppConfig.GoogleClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		}
	} else {
		logger.Warn().Msg("Google OAuth keys missing")
	}

	if config.AppConfig.GithubClientID != "" {
		githubOauthConfig = &oauth2.Config{
			RedirectURL:  config.AppConfig.GithubCallbackURL,
			ClientID:     config.AppConfig.GithubClientID,
			ClientSecret: config.AppConfig.GithubClientSecret,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		}
	} else {
		logger.Warn().Msg("GitHub OAuth keys missing")
	}
}

func startOAuth(c *gin.Context, cfg *oauth2.Config) {
	state := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", config.AppConfig.IsProduction(), true)
	c.Redirect(http.StatusTemporaryRedirect, cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

func checkOAuthState(c *gin.Context) bool {
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || expected != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return false
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", config.AppConfig.IsProduction(), true)
	return true
}

func GoogleLogin(c *gin.Context) {
	if googleOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}
	startOAuth(c, googleOauthConfig)
}

func GoogleCallback(c *gin.Context) {
	if googleOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}
	if !checkOAuthState(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	token, err := googleOauthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		logger.Error().Err(err).Msg("Google OAuth exchange failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange token"})
		return
	}

	resp, err := googleOauthConfig.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get Google user info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil || userInfo.Email == "" {
		logger.Error().Err(err).Msg("Failed to parse Google user info")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse user info"})
		return
	}

	user := handleOAuthLogin(c, oauthProfile{
		Email: userInfo.Email, Name: userInfo.Name, Image: userInfo.Picture,
		Provider: "google_id", ProviderID: userInfo.ID,
	})
	if user != nil {
		finishOAuthLogin(c, user)
	}
}

func GithubLogin(c *gin.Context) {
	if githubOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub OAuth not configured"})
		return
	}
	startOAuth(c, githubOauthConfig)
}

func GithubCallback(c *gin.Context) {
	if githubOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub OAuth not configured"})
		return
	}
	if !checkOAuthState(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	token, err := githubOauthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange token"})
		return
	}
	client := githubOauthConfig.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse user info"})
		return
	}

	// private emails are only listed on /user/emails
	if userInfo.Email == "" {
		userInfo.Email = primaryGithubEmail(client)
	}
	if userInfo.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your GitHub account has no verified email"})
		return
	}
	if userInfo.Name == "" {
		userInfo.Name = userInfo.Login
	}

	user := handleOAuthLogin(c, oauthProfile{
		Email: userInfo.Email, Name: userInfo.Name, Image: userInfo.AvatarURL,
		Provider: "github_id", ProviderID: fmt.Sprint(userInfo.ID),
	})
	if user != nil {
		finishOAuthLogin(c, user)
	}
}

func primaryGithubEmail(client *http.Client) string {
	resp, err := client.Get("https://api.github.com/user/emails")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

type oauthProfile struct {
	Email      string
	Name       string
	Image      string
	Provider   string // column holding the provider id
	ProviderID string
}

// handleOAuthLogin resolves the user by email, restoring soft-deleted
// accounts, or creates one when registration is open. It writes the error
// response itself and returns nil on failure.
func handleOAuthLogin(c *gin.Context, p oauthProfile) *models.User {
	email := strings.ToLower(p.Email)

	var user models.User
	result := database.DB.Unscoped().Where("email = ?", email).First(&user)

	if result.Error == nil {
		updates := map[string]interface{}{p.Provider: p.ProviderID}
		if user.DeletedAt.Valid {
			updates["deleted_at"] = nil
			logger.Info().Str("email", email).Msg("Restored soft-deleted user via OAuth")
		}
		if user.Image == "" && p.Image != "" {
			updates["image"] = p.Image
		}
		if err := database.DB.Unscoped().Model(&user).Updates(updates).Error; err != nil {
			logger.Error().Err(err).Str("email", email).Msg("Failed to update user during OAuth")
		}
		if user.IsBlocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
			return nil
		}
		return &user
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		logger.Error().Err(result.Error).Str("email", email).Msg("Database query failed during OAuth login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error during login process"})
		return nil
	}

	if database.IsFeatureDisabled(models.SettingRegistrationOpen) {
		logger.Warn().Str("email", email).Msg("Registration closed during OAuth attempt")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "User registration is currently closed"})
		return nil
	}

	user = models.User{
		Email:             email,
		Name:              p.Name,
		Image:             p.Image,
		Role:              models.RoleClient,
		MembershipStatus:  models.MembershipNone,
		PreferredLanguage: requestLang(c),
	}
	if p.Provider == "google_id" {
		user.GoogleID = p.ProviderID
	} else {
		user.GithubID = p.ProviderID
	}

	if err := database.DB.Create(&user).Error; err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Failed to create user during OAuth")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Account creation failed"})
		return nil
	}
	logger.Info().Str("email", email).Str("user_id", user.ID).Msg("New user registered via OAuth")
	return &user
}

func finishOAuthLogin(c *gin.Context, user *models.User) {
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token during OAuth")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in via OAuth")

	redirectURL := fmt.Sprintf("%s/oauth-callback?token=%s", config.AppConfig.FrontendURL, token)
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}
