package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule describes the allowed request rate for a route group.
type RateLimitRule struct {
	Rate  rate.Limit
	Burst int
}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one token bucket per principal and group.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter constructs an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *RateLimiter) get(key string, rule RateLimitRule) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rule.Rate, rule.Burst)
		l.limiters[key] = lim
	}
	return lim
}

// RateLimit limits requests per authenticated principal (or client IP).
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter()
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		key := principal + "|" + group

		lim := cfg.Limiter.get(key, rule)
		reservation := lim.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			retryAfterMs := int(delay / time.Millisecond)
			if retryAfterMs <= 0 {
				retryAfterMs = 1000
			}
			retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":        "rate_limited",
				"retryAfterMs": retryAfterMs,
			})
			return
		}
		c.Next()
	}
}
