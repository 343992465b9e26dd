package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/validation"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/message"
)

const readinessTimeout = 2 * time.Second

type expirationResponse struct {
	ItemCount         int `json:"itemCount"`
	NotificationsSent int `json:"notificationsSent"`
}

type pickupResponse struct {
	RemindersSent int `json:"remindersSent"`
	TotalPickups  int `json:"totalPickups"`
}

type notificationRequest struct {
	Type   string         `json:"type"`
	UserID string         `json:"userId,omitempty"`
	Params message.Params `json:"params"`
}

type notificationResponse struct {
	SuccessCount int  `json:"successCount"`
	FailureCount int  `json:"failureCount"`
	Delivered    bool `json:"delivered"`
}

type cleanupResponse struct {
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}

func (s *Server) scanExpiringItems(c echo.Context) error {
	summary, err := s.deps.Expiration.Scan(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expirationResponse{
		ItemCount:         summary.ItemCount,
		NotificationsSent: summary.NotificationsSent,
	})
}

func (s *Server) scanPickupReminders(c echo.Context) error {
	summary, err := s.deps.Pickup.Scan(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pickupResponse{
		RemindersSent: summary.RemindersSent,
		TotalPickups:  summary.TotalPickups,
	})
}

func (s *Server) sendNotification(c echo.Context) error {
	var req notificationRequest
	if err := c.Bind(&req); err != nil {
		return errors.NewInvalidNotificationRequestError("request body is not valid JSON")
	}

	result, err := validation.Validate(validation.NotificationRequestSchema, req)
	if err != nil {
		return err
	}
	if !result.Valid {
		return errors.NewInvalidNotificationRequestError(result.Summary())
	}

	summary, err := s.deps.Notifier.Notify(c.Request().Context(), models.EventType(req.Type), req.UserID, req.Params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notificationResponse{
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		Delivered:    summary.Delivered(),
	})
}

func (s *Server) cleanupTokens(c echo.Context) error {
	if s.deps.Cleanup == nil {
		return errNoTokenLedger
	}
	summary, err := s.deps.Cleanup.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cleanupResponse{Cleared: summary.Cleared, Failed: summary.Failed})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(c echo.Context) error {
	names := make([]string, 0, len(s.deps.Readiness))
	for name := range s.deps.Readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status := http.StatusOK
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		err := s.deps.Readiness[name].Ping(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	return c.JSON(status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}
