package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/middleware"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/routes"
	"github.com/akrammlh02/elearning-backend/internal/services"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/akrammlh02/elearning-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// setupApp wires the real route table over a private in-memory database.
// External services are left unconfigured: no oracle, gateway or mailer.
func setupApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTSecret:          "test_secret_key_12345",
		CertificateBaseURL: "https://academy.example/certificates",
	}

	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	database.DB = db

	services.DefaultGrader = services.NewGrader(nil)
	services.DefaultPayments = &services.PaymentService{
		Currency:       "USD",
		TierPrices:     map[models.MembershipTier]float64{models.TierPro: 15, models.TierVIP: 30},
		MembershipDays: 30,
		WhatsAppNumber: "212600000000",
	}
	services.DefaultGateway = nil
	services.DefaultMailer = nil

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware(), middleware.Locale())
	routes.Register(r)
	return r, db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role models.Role) string {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(&user).Error)
	token, err := utils.GenerateToken(user.ID)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func field(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, p := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}
