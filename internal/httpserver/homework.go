package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type HomeworkHTTP struct {
	Svc *service.HomeworkService
}

func (h *HomeworkHTTP) SubmitHomework(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "homework.submit")

	p, err := principal(c)
	if err != nil {
		return err
	}
	lessonID, err := parseID(c, l, "homework_submit", "id")
	if err != nil {
		return err
	}
	var req transport.SubmitHomeworkRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "homework_submit", "invalid body", err)
	}

	hw, err := h.Svc.Submit(ctx, p, lessonID, req.Answer)
	if err != nil {
		return fail(l, "homework_submit", err)
	}
	return c.JSON(http.StatusCreated, hw)
}

func (h *HomeworkHTTP) GetHomework(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "homework.list")

	p, err := principal(c)
	if err != nil {
		return err
	}
	lessonID, err := parseID(c, l, "get_homework", "id")
	if err != nil {
		return err
	}
	items, err := h.Svc.ListByLesson(ctx, p, lessonID)
	if err != nil {
		return fail(l, "get_homework", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *HomeworkHTTP) MarkHomework(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "homework.mark")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "homework_mark", "id")
	if err != nil {
		return err
	}
	var req transport.MarkHomeworkRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "homework_mark", "invalid body", err)
	}
	if req.Mark == nil {
		return badRequest(l, "homework_mark", "mark is required", errors.New("mark missing"))
	}

	hw, err := h.Svc.Grade(ctx, p, id, *req.Mark)
	if err != nil {
		return fail(l, "homework_mark", err)
	}
	return c.JSON(http.StatusOK, hw)
}
