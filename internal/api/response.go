package api

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"foodbank-notifier/internal/common/errors"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid trigger token")
	errNoTokenLedger = echo.NewHTTPError(http.StatusServiceUnavailable, "token ledger is not configured")
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  c.Request().URL.Path,
			"error": err.Error(),
		})
	}
	if jsonErr := c.JSON(status, body); jsonErr != nil {
		s.logger.Error("failed to send error response", map[string]interface{}{"error": jsonErr.Error()})
	}
}

func mapError(err error) (int, errorResponse) {
	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, errorResponse{Error: msg}
	}

	stdErr := errors.AsStandard(err)
	body := errorResponse{Error: stdErr.Error(), Code: string(stdErr.Code)}
	switch stdErr.Code {
	case errors.ErrCodeInvalidNotificationRequest:
		return http.StatusBadRequest, body
	case errors.ErrCodeGatewayUnavailable:
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}
