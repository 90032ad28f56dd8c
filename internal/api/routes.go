package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/acavel/qrservice/internal/ratelimit"
	"github.com/acavel/qrservice/internal/services"
	"github.com/gin-gonic/gin"
)

// Options carries everything SetupRoutes needs to bind the HTTP surface.
type Options struct {
	BaseURL        string
	StaticDir      string
	Limiter        *ratelimit.Limiter
	TrackedService *services.TrackedQRService
	StartTime      time.Time
}

// SetupRoutes configures all routes on the given engine.
//
// Rate limiting covers generation, decode, batch, templates, the share-URL
// view and the tracked create, stats and delete endpoints. Health and
// short-URL redirects are exempt:
// the former so probes never 429, the latter so scans are never suppressed.
func SetupRoutes(router *gin.Engine, opts Options) {
	rl := RateLimit(opts.Limiter)

	router.GET("/health", HealthHandler(opts.StartTime))
	router.GET("/llms.txt", LlmsTxtHandler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthHandler(opts.StartTime))
		v1.GET("/llms.txt", LlmsTxtHandler())

		v1.POST("/qr/generate", rl, GenerateHandler(opts.BaseURL))
		v1.POST("/qr/decode", rl, DecodeHandler())
		v1.POST("/qr/batch", rl, BatchHandler(opts.BaseURL))
		v1.POST("/qr/template/:type", rl, TemplateHandler(opts.BaseURL))

		v1.POST("/qr/tracked", rl, CreateTrackedHandler(opts.TrackedService, opts.BaseURL))
		v1.GET("/qr/tracked/:id/stats", rl, StatsHandler(opts.TrackedService))
		v1.DELETE("/qr/tracked/:id", rl, DeleteTrackedHandler(opts.TrackedService))
	}

	// Stateless share-URL rendering; lives outside /api/v1 so encoded
	// links stay short.
	router.GET("/qr/view", rl, ViewHandler())

	// Short-URL redirects at the root, never rate limited.
	router.GET("/r/:code", RedirectHandler(opts.TrackedService))

	if opts.StaticDir != "" {
		serveSPA(router, opts.StaticDir)
	}
}

// serveSPA serves the browser UI from dir with an index.html fallback for
// client-side routes.
func serveSPA(router *gin.Engine, dir string) {
	router.Static("/assets", filepath.Join(dir, "assets"))
	router.StaticFile("/", filepath.Join(dir, "index.html"))
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.File(filepath.Join(dir, "index.html"))
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "route not found"})
	})
}
