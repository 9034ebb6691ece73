package router

import (
	"github.com/Tireon003/notification-management-service/internal/handlers"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, requestsPerSecond float64) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.Logger())
	if requestsPerSecond > 0 {
		e.Use(eMiddleware.RateLimiter(
			eMiddleware.NewRateLimiterMemoryStore(rate.Limit(requestsPerSecond)),
		))
	}
}

// SetupRoutes registers all application routes
func SetupRoutes(e *echo.Echo, notificationHandler *handlers.NotificationHandler) {
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1")
	notificationHandler.RegisterNotificationRoutes(api)
}
