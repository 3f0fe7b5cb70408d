// Package httpapi wires the operator HTTP surface (Gin) to the cycle journal
// and the poller's in-memory state. It centralizes cross-cutting concerns:
// tracing, correlation IDs, access logging, panic recovery, metrics, rate
// limiting, CORS, security headers, and compression.
//
// The API is read-only. When db is nil the journal endpoints answer 503 and
// /status still works from memory.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/config"
	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/http/docs"
	"github.com/tbourn/homework-bot/internal/http/handlers"
	"github.com/tbourn/homework-bot/internal/http/middleware"
	"github.com/tbourn/homework-bot/internal/repo"
	"github.com/tbourn/homework-bot/internal/services"
)

// cycleRepoShim adapts the repository free functions to services.CycleRepo.
type cycleRepoShim struct{}

func (cycleRepoShim) GetCycle(ctx context.Context, db *gorm.DB, id string) (*domain.Cycle, error) {
	return repo.GetCycle(ctx, db, id)
}

func (cycleRepoShim) CountCycles(ctx context.Context, db *gorm.DB, outcome string) (int64, error) {
	return repo.CountCycles(ctx, db, outcome)
}

func (cycleRepoShim) ListCyclesPage(ctx context.Context, db *gorm.DB, outcome string, offset, limit int) ([]domain.Cycle, error) {
	return repo.ListCyclesPage(ctx, db, outcome, offset, limit)
}

func (cycleRepoShim) CyclesStats(ctx context.Context, db *gorm.DB, outcome string) (int64, *time.Time, error) {
	return repo.CyclesStats(ctx, db, outcome)
}

var corsMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. Access logger
//  4. Recovery (after the logger so panics are logged with the request id)
//  5. Metrics
//  6. Rate limiter (per IP; /health and /metrics exempt)
//  7. CORS and security headers
//  8. gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, status handlers.StatusSource, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP(), "/health", "/metrics")
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs at /swagger/index.html
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	if docs.SwaggerInfo.BasePath == "" {
		docs.SwaggerInfo.BasePath = "/"
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var cycles handlers.CycleService
	if db != nil {
		cycles = services.NewCycleService(db, cycleRepoShim{})
	}
	h := handlers.New(cycles, status)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/status", h.GetStatus)
		api.GET("/verdicts", h.ListVerdicts)
		api.GET("/cycles", h.ListCycles)
		api.GET("/cycles/:id", h.GetCycle)
	}
}

// corsMiddleware returns the CORS chain. With no allowlist every origin is
// allowed and ACAO is forced to "*" even without an Origin header; otherwise
// allowed origins are echoed back.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	exposed := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After"}
	headers := []string{"Origin", "Accept", "If-None-Match"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    corsMethods,
				AllowHeaders:    headers,
				ExposeHeaders:   exposed,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  corsMethods,
			AllowHeaders:  headers,
			ExposeHeaders: exposed,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
