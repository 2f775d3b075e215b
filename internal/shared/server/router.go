package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/auth"
	"resume-dashboard/internal/editor"
	"resume-dashboard/internal/export"
	"resume-dashboard/internal/jobs"
	"resume-dashboard/internal/overview"
	"resume-dashboard/internal/resumes"
	"resume-dashboard/internal/services/health"
	"resume-dashboard/internal/session"
	"resume-dashboard/internal/shared/config"
	"resume-dashboard/internal/shared/metrics"
	"resume-dashboard/internal/shared/server/middleware"
	"resume-dashboard/internal/shared/server/respond"
	"resume-dashboard/internal/tailored"
	"resume-dashboard/internal/vault"
	"resume-dashboard/internal/workshops"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupExport  = "EXPORT"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config    config.Config
	Sessions  *session.Service
	API       *apiclient.Client
	Health    *health.Service
	Auth      *auth.Handler
	Google    *auth.GoogleService
	Resumes   *resumes.Handler
	Jobs      *jobs.Handler
	Vault     *vault.Handler
	Workshops *workshops.Handler
	Editor    *editor.Handler
	Tailored  *tailored.Handler
	Export    *export.Handler
	Overview  *overview.Handler
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
	)

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		GroupFor:     rateGroupFor,
		Limiter:      middleware.NewRateLimiter(nil),
		Rules: map[string]middleware.RateLimitRule{
			rateGroupDefault: {Rate: deps.Config.RateLimit, Burst: deps.Config.RateBurst},
			rateGroupExport:  {Rate: deps.Config.ExportRateLimit, Burst: deps.Config.ExportRateBurst},
		},
	})

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	public := api.Group("", limit)
	deps.Auth.RegisterPublicRoutes(public)
	if deps.Google != nil {
		deps.Google.RegisterRoutes(public)
	}

	private := api.Group("", middleware.Session(deps.Sessions, deps.API, deps.Config.CookieSecure), limit)
	deps.Auth.RegisterRoutes(private)
	deps.Overview.RegisterRoutes(private)
	deps.Resumes.RegisterRoutes(private)
	deps.Jobs.RegisterRoutes(private)
	deps.Vault.RegisterRoutes(private)
	deps.Workshops.RegisterRoutes(private)
	deps.Editor.RegisterRoutes(private)
	deps.Tailored.RegisterRoutes(private)
	deps.Export.RegisterRoutes(private)

	return r
}

func rateGroupFor(c *gin.Context) string {
	if strings.HasSuffix(c.FullPath(), "/export") {
		return rateGroupExport
	}
	return rateGroupDefault
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
