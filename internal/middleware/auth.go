package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/pkg/logging"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	ctxPrincipal = "principal"
	ctxAuthErr   = "auth_error"
)

type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, raw string) (*service.Principal, error)
}

// Bearer accepts an access token from the Authorization header or the
// accessToken cookie and stores the resolved principal in the context.
func Bearer(v TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ctxPrincipal,
		TokenLookup: "header:Authorization:Bearer ,cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			p, err := v.ValidateAccessToken(c.Request().Context(), raw)
			if err != nil {
				c.Set(ctxAuthErr, err)
				return nil, err
			}
			return p, nil
		},
		SuccessHandler: func(c echo.Context) {
			p, ok := PrincipalFrom(c)
			if !ok {
				return
			}
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("user_id", p.UserID, "role", p.Role)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "bearer")

			authErr, _ := c.Get(ctxAuthErr).(error)
			switch {
			case authErr == nil:
				l.Warn("auth_failed", "status", 401, "reason", "missing access token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			case errors.Is(authErr, service.ErrInvalidToken):
				l.Warn("auth_failed", "status", 401, "reason", "invalid or expired token", "error", authErr)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			default:
				l.Error("auth_failed", "status", 500, "reason", "cannot verify token", "error", authErr)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot verify token")
			}
		},
	})
}

func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(roles, p.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}

func PrincipalFrom(c echo.Context) (service.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(*service.Principal)
	if !ok || p == nil {
		return service.Principal{}, false
	}
	return *p, true
}
