package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type EnrollmentHTTP struct {
	Svc *service.EnrollmentService
}

func (h *EnrollmentHTTP) GetEnrollments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "enrollment.list")

	p, err := principal(c)
	if err != nil {
		return err
	}
	courseID, err := parseID(c, l, "get_enrollments", "id")
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, p, courseID)
	if err != nil {
		return fail(l, "get_enrollments", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *EnrollmentHTTP) Enroll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "enrollment.enroll")

	p, err := principal(c)
	if err != nil {
		return err
	}
	courseID, err := parseID(c, l, "enroll", "id")
	if err != nil {
		return err
	}
	var req transport.EnrollRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "enroll", "invalid body", err)
	}

	items, err := h.Svc.Enroll(ctx, p, courseID, req)
	if err != nil {
		return fail(l, "enroll", err)
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *EnrollmentHTTP) Unenroll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "enrollment.remove")

	p, err := principal(c)
	if err != nil {
		return err
	}
	courseID, err := parseID(c, l, "unenroll", "id")
	if err != nil {
		return err
	}
	userID, err := parseID(c, l, "unenroll", "userId")
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(ctx, p, courseID, userID); err != nil {
		return fail(l, "unenroll", err)
	}
	return c.NoContent(http.StatusNoContent)
}
