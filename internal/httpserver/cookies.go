package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/middleware"
	"github.com/Skotchmaster/courses/internal/service"
)

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func setAuthCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(CreateCookie(middleware.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(CreateCookie(middleware.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(DeleteCookie(middleware.AccessCookie, "/"))
	c.SetCookie(DeleteCookie(middleware.RefreshCookie, "/"))
}
