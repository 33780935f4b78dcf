package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP in memory.
type IPRateLimiter struct {
	ips   map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
// r = requests per second, burst = max burst size
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
	}

	go rl.cleanup()

	return rl
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, entry := range rl.ips {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(rl.ips, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// GetLimiter returns the rate limiter for the given IP
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

var (
	// Auth endpoints: 20 requests per minute
	AuthLimiter = NewIPRateLimiter(rate.Limit(20.0/60.0), 10)

	// Code execution: 60 requests per minute
	ExecuteLimiter = NewIPRateLimiter(rate.Limit(1.0), 5)

	// General API: 600 requests per minute
	GeneralLimiter = NewIPRateLimiter(rate.Limit(10.0), 50)

	// Graded submissions: 20 per minute
	SubmitLimiter = NewIPRateLimiter(rate.Limit(20.0/60.0), 5)
)

func tooManyRequests(c *gin.Context, key string) {
	logger.Warn().
		Str("key", key).
		Str("path", c.Request.URL.Path).
		Msg("Rate limit exceeded")

	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "Too many requests",
		"message": "Rate limit exceeded. Please slow down.",
	})
	c.Abort()
}

// RateLimitMiddleware creates a rate limiting middleware with a custom limiter
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			tooManyRequests(c, ip)
			return
		}
		c.Next()
	}
}

// UserQuota caps an authenticated user across all instances using the shared
// Redis counter. Without Redis the check always passes and the IP limiters
// are the only guard.
func UserQuota(name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userId")
		if userID == "" {
			c.Next()
			return
		}

		key := name + ":" + userID
		allowed, err := database.CheckRateLimit(key, limit, window)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
			c.Next()
			return
		}
		if !allowed {
			tooManyRequests(c, key)
			return
		}
		c.Next()
	}
}

func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AuthLimiter)
}

func ExecuteRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(ExecuteLimiter)
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

// SubmitRateLimit guards graded submissions, which may call the paid oracle.
func SubmitRateLimit() gin.HandlerFunc {
	ipLimit := RateLimitMiddleware(SubmitLimiter)
	userLimit := UserQuota("submit", 100, time.Hour)
	return func(c *gin.Context) {
		ipLimit(c)
		if c.IsAborted() {
			return
		}
		userLimit(c)
	}
}
