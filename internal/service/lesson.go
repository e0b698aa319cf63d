package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
)

type LessonService struct {
	Store  *repo.Store
	Events events.Publisher
}

func (s *LessonService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error) {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	return s.Store.Lessons.ListByCourse(ctx, courseID)
}

func (s *LessonService) Get(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	lesson, err := s.Store.Lessons.FindByID(ctx, id)
	return lesson, fromRepo("lesson", err)
}

func (s *LessonService) Create(ctx context.Context, p Principal, courseID uuid.UUID, req transport.CreateLessonRequest) (*models.Lesson, error) {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, courseID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
		MaxMark:     models.DefaultMaxMark,
	}
	if req.MaxMark != nil {
		lesson.MaxMark = *req.MaxMark
	}
	if err := validateLesson(lesson); err != nil {
		return nil, err
	}

	if err := s.Store.Lessons.Create(ctx, lesson); err != nil {
		return nil, fromRepo("lesson", err)
	}

	publish(ctx, s.Events, events.Event{
		Type:     "lesson_created",
		UserID:   p.UserID.String(),
		CourseID: courseID.String(),
		Payload:  map[string]any{"lesson_id": lesson.ID.String(), "title": lesson.Title},
	})
	return lesson, nil
}

func (s *LessonService) Update(ctx context.Context, p Principal, id uuid.UUID, req transport.PatchLessonRequest) (*models.Lesson, error) {
	lesson, err := s.Store.Lessons.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo("lesson", err)
	}
	if err := canManageCourse(ctx, s.Store, p, lesson.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		lesson.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		lesson.Date = req.Date
	}
	if req.MaxMark != nil {
		lesson.MaxMark = *req.MaxMark
	}
	if err := validateLesson(lesson); err != nil {
		return nil, err
	}

	if err := s.Store.Lessons.Update(ctx, lesson); err != nil {
		return nil, fromRepo("lesson", err)
	}
	return lesson, nil
}

func (s *LessonService) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	lesson, err := s.Store.Lessons.FindByID(ctx, id)
	if err != nil {
		return fromRepo("lesson", err)
	}
	if err := canManageCourse(ctx, s.Store, p, lesson.CourseID); err != nil {
		return err
	}
	if err := s.Store.Lessons.DeleteWithHomework(ctx, id); err != nil {
		return fromRepo("lesson", err)
	}

	publish(ctx, s.Events, events.Event{
		Type:     "lesson_deleted",
		UserID:   p.UserID.String(),
		CourseID: lesson.CourseID.String(),
		Payload:  map[string]any{"lesson_id": id.String()},
	})
	return nil
}

func validateLesson(l *models.Lesson) error {
	if l.Title == "" {
		return validationf("title is required")
	}
	if l.MaxMark < 1 {
		return validationf("maxMark must be positive")
	}
	return nil
}
