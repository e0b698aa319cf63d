package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type FeedbackHTTP struct {
	Svc *service.FeedbackService
}

func (h *FeedbackHTTP) SubmitFeedback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.submit")

	p, err := principal(c)
	if err != nil {
		return err
	}
	courseID, err := parseID(c, l, "feedback_submit", "id")
	if err != nil {
		return err
	}
	var req transport.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "feedback_submit", "invalid body", err)
	}

	fb, err := h.Svc.Submit(ctx, p, courseID, req)
	if err != nil {
		return fail(l, "feedback_submit", err)
	}
	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHTTP) GetFeedback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.list")

	courseID, err := parseID(c, l, "get_feedback", "id")
	if err != nil {
		return err
	}
	summary, err := h.Svc.List(ctx, courseID)
	if err != nil {
		return fail(l, "get_feedback", err)
	}
	return c.JSON(http.StatusOK, summary)
}
