package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type LessonHTTP struct {
	Svc *service.LessonService
}

func (h *LessonHTTP) GetLessons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lesson.get_lessons")

	courseID, err := parseID(c, l, "get_lessons", "id")
	if err != nil {
		return err
	}
	items, err := h.Svc.ListByCourse(ctx, courseID)
	if err != nil {
		return fail(l, "get_lessons", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *LessonHTTP) GetLesson(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lesson.get_lesson")

	id, err := parseID(c, l, "get_lesson", "id")
	if err != nil {
		return err
	}
	lesson, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_lesson", err)
	}
	return c.JSON(http.StatusOK, lesson)
}

func (h *LessonHTTP) CreateLesson(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lesson.create")

	p, err := principal(c)
	if err != nil {
		return err
	}
	courseID, err := parseID(c, l, "lesson_create", "id")
	if err != nil {
		return err
	}
	var req transport.CreateLessonRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "lesson_create", "invalid body", err)
	}

	lesson, err := h.Svc.Create(ctx, p, courseID, req)
	if err != nil {
		return fail(l, "lesson_create", err)
	}
	return c.JSON(http.StatusCreated, lesson)
}

func (h *LessonHTTP) PatchLesson(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lesson.patch")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "lesson_patch", "id")
	if err != nil {
		return err
	}
	var req transport.PatchLessonRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "lesson_patch", "invalid body", err)
	}

	lesson, err := h.Svc.Update(ctx, p, id, req)
	if err != nil {
		return fail(l, "lesson_patch", err)
	}
	return c.JSON(http.StatusOK, lesson)
}

func (h *LessonHTTP) DeleteLesson(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lesson.delete")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "lesson_delete", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, p, id); err != nil {
		return fail(l, "lesson_delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
