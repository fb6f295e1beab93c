package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mash021/meal-sharing/internal/metrics"
	"github.com/mash021/meal-sharing/internal/middleware"
	"github.com/mash021/meal-sharing/internal/service"
)

// Services are the dependencies the HTTP layer calls into.
type Services struct {
	Meals        *service.MealService
	Reservations *service.ReservationService
	Reviews      *service.ReviewService
	Health       TableLister
}

// RouterConfig holds the optional cross-cutting behaviour of the router.
type RouterConfig struct {
	CORSOrigins     []string
	JWTSecret       string
	JWTRequiredRole string
	// RateLimiter is nil when rate limiting is off.
	RateLimiter    *middleware.RateLimiter
	MetricsEnabled bool
}

// NewRouter builds the gin engine serving /api.
func NewRouter(log logrus.FieldLogger, svc Services, cfg RouterConfig) *gin.Engine {
	configureValidator()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		gin.Recovery(),
		middleware.CORS(cfg.CORSOrigins),
	)
	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Handler())
	}

	write := api.Group("")
	if cfg.JWTSecret != "" {
		write.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTRequiredRole))
	}

	NewHealthHandler(svc.Health).RegisterRoutes(api)
	NewMealHandler(svc.Meals, svc.Reviews).RegisterRoutes(api, write)
	NewReservationHandler(svc.Reservations).RegisterRoutes(api, write)
	NewReviewHandler(svc.Reviews).RegisterRoutes(api, write)
	NewLegacyHandler(svc.Meals).RegisterRoutes(api)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}
