package handlers

import (
	"net/http"
	"strconv"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/internal/services"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// respondError renders AppErrors directly. Anything else is handed to
// ErrorHandlerMiddleware, which logs it and answers 500.
func respondError(c *gin.Context, err error) {
	if apperrors.StatusCode(err) == http.StatusInternalServerError {
		c.Error(err)
		return
	}
	c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
}

func requestLang(c *gin.Context) string {
	if lang := c.GetString("lang"); lang != "" {
		return lang
	}
	return models.LangEnglish
}

// currentLearner re-reads the caller on every request so tier changes and
// expiries apply immediately. Guests yield nil without error.
func currentLearner(c *gin.Context) (*services.Learner, bool) {
	learner, err := services.LoadLearner(c.Request.Context(), database.DB, c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return learner, true
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
