package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/courses/internal/repo"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// fromRepo maps persistence errors onto the service taxonomy.
func fromRepo(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repo.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	case errors.Is(err, repo.ErrInvalidEntity):
		return fmt.Errorf("%s: %w", what, ErrValidation)
	}
	return err
}
