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

type CourseHTTP struct {
	Svc *service.CourseService
}

func (h *CourseHTTP) GetCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.get_courses")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_courses", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.Course]{Data: items, Meta: util.NewMeta(page, offset, limit, total)})
}

func (h *CourseHTTP) SearchCourses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_courses", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.Course]{Data: items, Meta: util.NewMeta(page, offset, limit, total)})
}

func (h *CourseHTTP) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.get_course")

	id, err := parseID(c, l, "get_course", "id")
	if err != nil {
		return err
	}
	course, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_course", err)
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHTTP) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.create")

	p, err := principal(c)
	if err != nil {
		return err
	}
	var req transport.CreateCourseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "course_create", "invalid body", err)
	}

	course, err := h.Svc.Create(ctx, p, req)
	if err != nil {
		return fail(l, "course_create", err)
	}
	l.Info("create_course_success", "course_id", course.ID)
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHTTP) PatchCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.patch")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "course_patch", "id")
	if err != nil {
		return err
	}
	var req transport.PatchCourseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "course_patch", "invalid body", err)
	}

	course, err := h.Svc.Update(ctx, p, id, req)
	if err != nil {
		return fail(l, "course_patch", err)
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHTTP) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course.delete")

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, l, "course_delete", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, p, id); err != nil {
		return fail(l, "course_delete", err)
	}
	l.Info("delete_course_success", "course_id", id)
	return c.NoContent(http.StatusNoContent)
}
