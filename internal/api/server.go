// Package api exposes the manual trigger endpoints next to health and
// metrics.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
)

type ExpirationScanner interface {
	Scan(ctx context.Context) (*models.ExpirationSummary, error)
}

type PickupScanner interface {
	Scan(ctx context.Context) (*models.PickupSummary, error)
}

type Notifier interface {
	Notify(ctx context.Context, eventType models.EventType, uid string, params message.Params) (dispatch.Summary, error)
}

type TokenCleaner interface {
	Run(ctx context.Context) (models.CleanupSummary, error)
}

// Pinger is a readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependencies wires the handlers. Cleanup may be nil when no token ledger
// is configured.
type Dependencies struct {
	Expiration ExpirationScanner
	Pickup     PickupScanner
	Notifier   Notifier
	Cleanup    TokenCleaner
	Readiness  map[string]Pinger
}

type Config struct {
	// TriggerToken, when set, must be sent in X-Trigger-Token on /v1 routes.
	TriggerToken string
}

type Server struct {
	deps   Dependencies
	logger logger.Logger
}

// New builds the echo instance with every route registered.
func New(cfg Config, deps Dependencies, log logger.Logger) *echo.Echo {
	s := &Server{deps: deps, logger: log}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))

	e.GET("/health", s.health)
	e.GET("/ready", s.ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", TriggerToken(cfg.TriggerToken))
	v1.POST("/scans/expiring-items", s.scanExpiringItems)
	v1.POST("/scans/pickup-reminders", s.scanPickupReminders)
	v1.POST("/notifications", s.sendNotification)
	v1.POST("/maintenance/token-cleanup", s.cleanupTokens)

	return e
}
