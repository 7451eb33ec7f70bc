// Package api wires the HTTP surface: routing, middleware, error mapping
// and Prometheus instrumentation.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api/handler"
	"github.com/anshfreight/ifta-miles/internal/api/middleware"
	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	ReportHandler *handler.ReportHandler
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
	JWTSecret     string
	Logger        zerolog.Logger
}

// NewRouter builds the Echo instance with all routes and middleware attached.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewErrorHandler(deps.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echoprometheus.NewMiddleware("ifta"))

	logger := deps.Logger
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request")
			return nil
		},
	}))

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health/live", deps.HealthHandler.Live)
	e.GET("/health/ready", deps.HealthHandler.Ready)

	auth := e.Group("/v1/auth")
	auth.POST("/login", deps.AuthHandler.Login)
	auth.POST("/register", deps.AuthHandler.Register)

	reports := e.Group("/v1/reports", middleware.JWT(deps.JWTSecret))
	reports.POST("", deps.ReportHandler.Create,
		middleware.RequireRole(domain.RoleAdmin, domain.RoleAnalyst))
	reports.GET("/:id", deps.ReportHandler.Get)
	reports.GET("/:id/rows", deps.ReportHandler.ListRows)

	return e
}
