package api

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/avpulse/internal/middleware"
)

// RouterOptions tunes the request guards. Zero values fall back to
// 60 requests per minute per client and a 30s budget per request.
type RouterOptions struct {
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

func (o RouterOptions) withDefaults() RouterOptions {
	if o.RateLimit <= 0 {
		o.RateLimit = 60
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	return o
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, RateLimiter).
//   - Bounds each request to opts.RequestTimeout; the provider call inherits the deadline.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	opts = opts.withDefaults()
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(middleware.NewLimiter(opts.RateLimit, opts.RateWindow)),
		middleware.Timeout(opts.RequestTimeout),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		v1.GET("/summary", handler.GetSummary)
		v1.GET("/analysis", handler.GetAnalysis)
		v1.GET("/report", handler.GetReport)
		v1.GET("/snapshots", handler.GetSnapshots)
	}

	return router
}
