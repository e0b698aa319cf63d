package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/middleware"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/pkg/observability"
)

// fail logs err under "<op>_error" and turns it into the matching HTTP error.
// Unexpected errors are reported to Sentry and hidden from the client.
func fail(l *slog.Logger, op string, err error) error {
	event := op + "_error"

	var status int
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
		msg = strings.TrimPrefix(msg, service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "you don't have enough rights for this action"
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	default:
		l.Error(event, "status", 500, "reason", "internal error", "error", err)
		observability.CaptureError(err, map[string]string{"op": op})
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	l.Warn(event, "status", status, "reason", msg, "error", err)
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func parseID(c echo.Context, l *slog.Logger, op, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, badRequest(l, op, name+" is not a uuid", err)
	}
	return id, nil
}

func principal(c echo.Context) (service.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return service.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return p, nil
}
