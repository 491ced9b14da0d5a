// Package router assembles the gin engine: middleware chain, API
// routes, operational endpoints and the SPA static fallback.
package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayurmed/hms-api/internal/config"
	authhandler "github.com/ayurmed/hms-api/internal/handler/auth"
	healthhandler "github.com/ayurmed/hms-api/internal/handler/health"
	rxhandler "github.com/ayurmed/hms-api/internal/handler/prescription"
	riskhandler "github.com/ayurmed/hms-api/internal/handler/risk"
	userhandler "github.com/ayurmed/hms-api/internal/handler/user"
	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/validation"
	"github.com/ayurmed/hms-api/pkg/metrics"
)

type Handlers struct {
	Health       *healthhandler.Handler
	Auth         *authhandler.Handler
	User         *userhandler.Handler
	Prescription *rxhandler.Handler
	Risk         *riskhandler.Handler
}

func New(cfg *config.Config, h Handlers, authMW *middleware.AuthMiddleware, m *metrics.Metrics) *gin.Engine {
	if err := validation.Register(); err != nil {
		panic(err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	if cfg.RateLimit.RPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit).Handler())
	}
	if m != nil {
		r.Use(httpMetrics(m))
	}

	h.Health.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	h.Auth.RegisterRoutes(api, authMW)
	h.User.RegisterRoutes(api, authMW)
	h.Prescription.RegisterRoutes(api, authMW)
	h.Risk.RegisterRoutes(api, authMW)

	registerStatic(r, cfg.Static.Dir)
	return r
}

func httpMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// FullPath is the route template, keeping cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// registerStatic serves the built SPA. Unmatched non-API paths fall
// back to the entry document so client-side routing works on reload.
func registerStatic(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		return
	}

	r.Static("/assets", filepath.Join(dir, "assets"))
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "route not found"})
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
}
