package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Moniqchege/resume-builder/internal/ats"
	googleauth "github.com/Moniqchege/resume-builder/internal/auth"
	"github.com/Moniqchege/resume-builder/internal/resumes"
	"github.com/Moniqchege/resume-builder/internal/shared/config"
	"github.com/Moniqchege/resume-builder/internal/shared/server/middleware"
	"github.com/Moniqchege/resume-builder/internal/shared/server/respond"
	"github.com/Moniqchege/resume-builder/internal/users"
)

const analyzeRateGroup = "ANALYZE"

// RouterDeps carries the handlers the router wires up. Construction of
// services stays in bootstrap so tests can swap implementations.
type RouterDeps struct {
	Config        config.Config
	ResumeHandler *resumes.Handler
	ATSHandler    *ats.Handler
	UserHandler   *users.Handler
	GoogleAuth    *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				analyzeRateGroup: {Rate: rate.Limit(0.5), Burst: 3},
			},
			GroupFor: analyzeGroupFor,
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.ATSHandler != nil {
		deps.ATSHandler.RegisterRoutes(api)
	}

	return r
}

// analyzeGroupFor throttles the endpoints that call out to the reasoning
// provider. Everything else runs unlimited.
func analyzeGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	path := c.Request.URL.Path
	if strings.HasSuffix(path, "/ats/analyze") || strings.Contains(path, "/optimize") {
		return analyzeRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
