package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/logging"
)

// CourseIndex is a full-text index over courses.
type CourseIndex interface {
	Index(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error)
}

type CourseService struct {
	Store  *repo.Store
	Index  CourseIndex
	Events events.Publisher
}

func (s *CourseService) List(ctx context.Context, offset, limit int) (int64, []models.Course, error) {
	return s.Store.Courses.FindAll(ctx, offset, limit)
}

func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := s.Store.Courses.FindByID(ctx, id)
	return c, fromRepo("course", err)
}

// Search queries the index when one is configured and falls back to SQL
// matching otherwise or when the index is unreachable.
func (s *CourseService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error) {
	l := logging.FromContext(ctx).With("svc", "course.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, validationf("query is required")
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Store.Courses.FindByIDs(ctx, ids)
			return total, items, err
		}
		l.Warn("index_search_failed", "reason", "falling back to sql", "error", err)
	}
	return s.Store.Courses.Search(ctx, q, offset, limit)
}

func (s *CourseService) Create(ctx context.Context, p Principal, req transport.CreateCourseRequest) (*models.Course, error) {
	l := logging.FromContext(ctx).With("svc", "course.create")

	if !p.HasRole(models.RoleInstructor, models.RoleAdmin) {
		return nil, ErrForbidden
	}
	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Tags:        cleanTags(req.Tags),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	err := s.Store.InTx(ctx, func(tx *repo.Store) error {
		exists, err := tx.Courses.ExistsByTitle(ctx, course.Title)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("course %q: %w", course.Title, ErrConflict)
		}
		if err := tx.Courses.Create(ctx, course); err != nil {
			return fromRepo("course", err)
		}
		if p.Role != models.RoleInstructor {
			return nil
		}
		return tx.Enrollments.Create(ctx, &models.Enrollment{
			CourseID: course.ID,
			UserID:   p.UserID,
			Role:     models.RoleInstructor,
		})
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, course)
	publish(ctx, s.Events, events.Event{
		Type:     "course_created",
		UserID:   p.UserID.String(),
		CourseID: course.ID.String(),
		Payload:  map[string]any{"title": course.Title},
	})
	l.Info("create_course_success", "course_id", course.ID)
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, p Principal, id uuid.UUID, req transport.PatchCourseRequest) (*models.Course, error) {
	course, err := s.Store.Courses.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, id); err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = strings.TrimSpace(*req.Description)
	}
	if req.Tags != nil {
		course.Tags = cleanTags(*req.Tags)
	}
	if req.StartDate != nil {
		course.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		course.EndDate = req.EndDate
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	if err := s.Store.Courses.Update(ctx, course); err != nil {
		return nil, fromRepo("course", err)
	}

	s.reindex(ctx, course)
	publish(ctx, s.Events, events.Event{
		Type:     "course_updated",
		UserID:   p.UserID.String(),
		CourseID: course.ID.String(),
		Payload:  map[string]any{"title": course.Title},
	})
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "course.delete", "course_id", id)

	if _, err := s.Store.Courses.FindByID(ctx, id); err != nil {
		return fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, id); err != nil {
		return err
	}
	if err := s.Store.Courses.DeleteWithChildren(ctx, id); err != nil {
		return fromRepo("course", err)
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("index_delete_failed", "error", err)
		}
	}
	publish(ctx, s.Events, events.Event{Type: "course_deleted", UserID: p.UserID.String(), CourseID: id.String()})
	return nil
}

func (s *CourseService) reindex(ctx context.Context, course *models.Course) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, course); err != nil {
		logging.FromContext(ctx).Warn("index_course_failed", "course_id", course.ID, "error", err)
	}
}

func validateCourse(c *models.Course) error {
	if c.Title == "" {
		return validationf("title is required")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return validationf("end date before start date")
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
