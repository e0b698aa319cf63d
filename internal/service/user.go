package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type UserService struct {
	Store  *repo.Store
	Events events.Publisher
}

func (s *UserService) Me(ctx context.Context, p Principal) (*models.User, error) {
	u, err := s.Store.Users.FindByID(ctx, p.UserID)
	return u, fromRepo("user", err)
}

// Get lets users read their own profile; admins may read anyone's.
func (s *UserService) Get(ctx context.Context, p Principal, id uuid.UUID) (*models.User, error) {
	if !p.IsAdmin() && p.UserID != id {
		return nil, ErrForbidden
	}
	u, err := s.Store.Users.FindByID(ctx, id)
	return u, fromRepo("user", err)
}

func (s *UserService) List(ctx context.Context, p Principal, offset, limit int) (int64, []models.User, error) {
	if !p.IsAdmin() {
		return 0, nil, ErrForbidden
	}
	return s.Store.Users.FindAll(ctx, offset, limit)
}

// ChangeRole updates the role and revokes the user's tokens, so the next
// login carries the new role in its claims.
func (s *UserService) ChangeRole(ctx context.Context, p Principal, id uuid.UUID, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.change_role", "user_id", id)

	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	newRole := models.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !newRole.Valid() {
		return nil, validationf("unknown role %q", role)
	}

	var user *models.User
	err := s.Store.InTx(ctx, func(tx *repo.Store) error {
		if err := tx.Users.UpdateRole(ctx, id, newRole); err != nil {
			return fromRepo("user", err)
		}
		if _, err := tx.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
		u, err := tx.Users.FindByID(ctx, id)
		user = u
		return fromRepo("user", err)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:    "user_role_changed",
		UserID:  id.String(),
		Payload: map[string]any{"role": newRole, "by": p.UserID.String()},
	})
	l.Info("change_role_success", "role", newRole)
	return user, nil
}
