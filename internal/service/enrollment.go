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

type EnrollmentService struct {
	Store  *repo.Store
	Events events.Publisher
}

func (s *EnrollmentService) List(ctx context.Context, p Principal, courseID uuid.UUID) ([]models.Enrollment, error) {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, courseID); err != nil {
		if err := isEnrolledStudent(ctx, s.Store, p, courseID); err != nil {
			return nil, err
		}
	}
	return s.Store.Enrollments.ListByCourse(ctx, courseID)
}

// Enroll adds every user of the email list to the course with one role.
// The batch is all or nothing: an unknown email rejects it entirely.
// Students can only join a course that already has an instructor.
func (s *EnrollmentService) Enroll(ctx context.Context, p Principal, courseID uuid.UUID, req transport.EnrollRequest) ([]models.Enrollment, error) {
	l := logging.FromContext(ctx).With("svc", "enrollment.enroll", "course_id", courseID)

	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleInstructor {
		return nil, validationf("enrollment role must be STUDENT or INSTRUCTOR")
	}
	emails := uniqueEmails(req.Emails)
	if len(emails) == 0 {
		return nil, validationf("emails are required")
	}

	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, courseID); err != nil {
		return nil, err
	}

	err := s.Store.InTx(ctx, func(tx *repo.Store) error {
		if role == models.RoleStudent {
			has, err := tx.Enrollments.HasInstructor(ctx, courseID)
			if err != nil {
				return err
			}
			if !has {
				return validationf("course has no instructor yet")
			}
		}

		users, err := tx.Users.FindByEmails(ctx, emails)
		if err != nil {
			return err
		}
		if missing := missingEmails(emails, users); len(missing) > 0 {
			return fmt.Errorf("users %s: %w", strings.Join(missing, ", "), ErrNotFound)
		}

		items := make([]models.Enrollment, 0, len(users))
		for _, u := range users {
			if role == models.RoleInstructor && u.Role == models.RoleStudent {
				return validationf("%s is not an instructor", u.Email)
			}
			items = append(items, models.Enrollment{CourseID: courseID, UserID: u.ID, Role: role})
		}
		return tx.Enrollments.CreateMany(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:     "users_enrolled",
		UserID:   p.UserID.String(),
		CourseID: courseID.String(),
		Payload:  map[string]any{"emails": emails, "role": role},
	})
	l.Info("enroll_success", "count", len(emails), "role", role)
	return s.Store.Enrollments.ListByCourse(ctx, courseID)
}

func (s *EnrollmentService) Remove(ctx context.Context, p Principal, courseID, userID uuid.UUID) error {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return fromRepo("course", err)
	}
	if err := canManageCourse(ctx, s.Store, p, courseID); err != nil {
		return err
	}
	if err := s.Store.Enrollments.Remove(ctx, courseID, userID); err != nil {
		return fromRepo("enrollment", err)
	}

	publish(ctx, s.Events, events.Event{
		Type:     "user_unenrolled",
		UserID:   p.UserID.String(),
		CourseID: courseID.String(),
		Payload:  map[string]any{"user_id": userID.String()},
	})
	return nil
}

func uniqueEmails(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = normalizeEmail(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func missingEmails(want []string, found []models.User) []string {
	have := make(map[string]struct{}, len(found))
	for _, u := range found {
		have[u.Email] = struct{}{}
	}
	var missing []string
	for _, e := range want {
		if _, ok := have[e]; !ok {
			missing = append(missing, e)
		}
	}
	return missing
}
