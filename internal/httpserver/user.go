package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/internal/util"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	p, err := principal(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Me(ctx, p)
	if err != nil {
		return fail(l, "get_me", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_users")

	p, err := principal(c)
	if err != nil {
		return err
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, p, offset, limit)
	if err != nil {
		return fail(l, "get_users", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.User]{Data: items, Meta: util.NewMeta(page, offset, limit, total)})
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "get_user", "id")
	if err != nil {
		return err
	}
	u, err := h.Svc.Get(ctx, p, id)
	if err != nil {
		return fail(l, "get_user", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_role")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "change_role", "id")
	if err != nil {
		return err
	}
	var req transport.ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "change_role", "invalid body", err)
	}

	u, err := h.Svc.ChangeRole(ctx, p, id, req.Role)
	if err != nil {
		return fail(l, "change_role", err)
	}
	l.Info("change_role_success", "target", id)
	return c.JSON(http.StatusOK, u)
}
