package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/middleware"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register", "invalid body", err)
	}

	pair, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register", err)
	}

	setAuthCookies(c, pair)
	l.Info("register_success")
	return c.JSON(http.StatusCreated, transport.AuthenticationResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHTTP) Authenticate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_authenticate")

	var req transport.AuthenticationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "authenticate", "invalid body", err)
	}

	pair, err := h.Svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "authenticate", err)
	}

	setAuthCookies(c, pair)
	l.Info("authenticate_success")
	return c.JSON(http.StatusOK, transport.AuthenticationResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// RefreshToken takes the refresh token from "Authorization: Bearer" or the
// refreshToken cookie and answers with the new pair in cookies and body.
func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw := bearerToken(c)
	if raw == "" {
		if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
			raw = ck.Value
		}
	}
	if raw == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.Svc.RefreshToken(ctx, raw)
	if err != nil {
		clearAuthCookies(c)
		return fail(l, "refresh", err)
	}

	setAuthCookies(c, pair)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, transport.AuthenticationResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Logout(ctx, p.UserID); err != nil {
		return fail(l, "logout", err)
	}

	clearAuthCookies(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
