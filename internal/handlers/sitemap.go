package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/gin-gonic/gin"
)

const defaultSiteURL = "http://localhost:5173"

var (
	sitemapCache     []byte
	sitemapRefreshed time.Time
	sitemapMutex     sync.RWMutex
	sitemapTTL       = 6 * time.Hour
)

type SitemapEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name       `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []SitemapEntry `xml:"url"`
}

func siteURL() string {
	if config.AppConfig != nil && config.AppConfig.FrontendURL != "" {
		return strings.TrimRight(config.AppConfig.FrontendURL, "/")
	}
	return defaultSiteURL
}

func buildSitemap() ([]byte, error) {
	base := siteURL()
	var urls []SitemapEntry

	for _, p := range []string{"", "/courses", "/paths", "/pricing"} {
		urls = append(urls, SitemapEntry{Loc: base + p, ChangeFreq: "daily", Priority: "0.8"})
	}

	var courses []models.Course
	if err := database.DB.Select("id, updated_at").Where("is_published = ?", true).Find(&courses).Error; err != nil {
		return nil, err
	}
	for _, course := range courses {
		urls = append(urls, SitemapEntry{
			Loc:        fmt.Sprintf("%s/courses/%s", base, course.ID),
			LastMod:    course.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	var paths []models.LearningPath
	if err := database.DB.Select("id, slug, updated_at").Where("is_published = ?", true).Find(&paths).Error; err != nil {
		return nil, err
	}
	for _, p := range paths {
		urls = append(urls, SitemapEntry{
			Loc:        fmt.Sprintf("%s/paths/%s", base, p.Slug),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	output, err := xml.MarshalIndent(URLSet{URLs: urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + string(output)), nil
}

// GenerateSitemap lists published courses and paths. The document is cached
// in memory for sitemapTTL.
func GenerateSitemap(c *gin.Context) {
	sitemapMutex.RLock()
	if sitemapCache != nil && time.Since(sitemapRefreshed) < sitemapTTL {
		body := sitemapCache
		sitemapMutex.RUnlock()
		c.Data(http.StatusOK, "application/xml", body)
		return
	}
	sitemapMutex.RUnlock()

	body, err := buildSitemap()
	if err != nil {
		c.Error(err)
		return
	}

	sitemapMutex.Lock()
	sitemapCache = body
	sitemapRefreshed = time.Now()
	sitemapMutex.Unlock()

	c.Data(http.StatusOK, "application/xml", body)
}

func GenerateRobotsTXT(c *gin.Context) {
	robots := `User-agent: *
Allow: /
Disallow: /login
Disallow: /register
Disallow: /admin
Disallow: /api
Disallow: /checkout

Sitemap: ` + siteURL() + `/sitemap.xml`

	c.String(http.StatusOK, robots)
}
