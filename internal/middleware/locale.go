package middleware

import (
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{language.English, language.Arabic}

var languageMatcher = language.NewMatcher(supportedLanguages)

// Locale resolves the response language into c "lang": the ?lang query
// parameter wins, then Accept-Language, then English.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := ResolveLanguage(c.Query("lang"), c.GetHeader("Accept-Language"))
		c.Set("lang", lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

func ResolveLanguage(query, acceptLanguage string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		prefs = nil
	}
	if query != "" {
		if tag, err := language.Parse(query); err == nil {
			prefs = append([]language.Tag{tag}, prefs...)
		}
	}
	if len(prefs) == 0 {
		return models.LangEnglish
	}

	_, index, confidence := languageMatcher.Match(prefs...)
	if confidence == language.No {
		return models.LangEnglish
	}
	if supportedLanguages[index] == language.Arabic {
		return models.LangArabic
	}
	return models.LangEnglish
}
