package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
)

// Principal is the caller resolved from a valid access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

func (p Principal) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// canManageCourse allows admins and the instructors enrolled in the course.
func canManageCourse(ctx context.Context, store *repo.Store, p Principal, courseID uuid.UUID) error {
	if p.IsAdmin() {
		return nil
	}
	ok, err := store.Enrollments.HasRole(ctx, courseID, p.UserID, models.RoleInstructor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func isEnrolledStudent(ctx context.Context, store *repo.Store, p Principal, courseID uuid.UUID) error {
	ok, err := store.Enrollments.HasRole(ctx, courseID, p.UserID, models.RoleStudent)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
