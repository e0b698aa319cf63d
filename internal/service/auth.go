package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
	pkg_hash "github.com/Skotchmaster/courses/pkg/hash"
	"github.com/Skotchmaster/courses/pkg/logging"
	"github.com/Skotchmaster/courses/pkg/metrics"
	"github.com/Skotchmaster/courses/pkg/tokens"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type AuthService struct {
	Store   *repo.Store
	Issuer  *tokens.Issuer
	Events  events.Publisher
	Metrics *metrics.Auth
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (pair *TokenPair, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	defer func() { s.Metrics.Attempt("register", err) }()

	user, password, err := newUserFromRequest(req)
	if err != nil {
		return nil, err
	}
	l = l.With("email", user.Email)

	exists, err := s.Store.Users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot check email", "error", err)
		return nil, err
	}
	if exists {
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		return nil, fmt.Errorf("email %s: %w", user.Email, ErrConflict)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user.PasswordHash = pwHash

	err = s.Store.InTx(ctx, func(tx *repo.Store) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return fromRepo("user", err)
		}
		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			l.Error("register_error", "status", 500, "reason", "cannot persist user", "error", err)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    "user_registered",
		UserID:  user.ID.String(),
		Payload: map[string]any{"email": user.Email, "role": user.Role},
	})
	l.Info("register_success", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "email", email)
	defer func() { s.Metrics.Attempt("authenticate", err) }()

	if email == "" || password == "" {
		return nil, validationf("email and password are required")
	}

	user, err := s.Store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("authenticate_failed", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("authenticate_failed", "status", 401, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	err = s.Store.InTx(ctx, func(tx *repo.Store) error {
		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publish(ctx, events.Event{Type: "user_authenticated", UserID: user.ID.String()})
	return pair, nil
}

// RefreshToken trades a valid refresh token for a new pair. The presented
// token is revoked with a compare-and-set so that only one of several
// concurrent callers presenting it can win.
func (s *AuthService) RefreshToken(ctx context.Context, presented string) (pair *TokenPair, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	defer func() { s.Metrics.Refreshed(err) }()

	claims, err := s.Issuer.RefreshClaimsFromToken(presented)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			s.expire(ctx, presented)
		}
		l.Warn("refresh_failed", "status", 401, "reason", "bad refresh token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := s.Store.Users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "subject unknown")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.ID.String() != claims.UserID {
		l.Warn("refresh_failed", "status", 401, "reason", "subject mismatch")
		return nil, ErrInvalidToken
	}

	err = s.Store.InTx(ctx, func(tx *repo.Store) error {
		// same lock order as issuePair: user row first, then tokens
		if _, err := tx.Users.LockForUpdate(ctx, user.ID); err != nil {
			return err
		}
		stored, err := tx.Tokens.FindByRawToken(ctx, presented)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("refresh token not stored: %w", ErrInvalidToken)
			}
			return err
		}
		if stored.Kind != models.TokenRefresh || stored.UserID != user.ID {
			return fmt.Errorf("refresh token owner or kind mismatch: %w", ErrInvalidToken)
		}
		if !stored.Valid() {
			return fmt.Errorf("refresh token expired or revoked: %w", ErrInvalidToken)
		}

		won, err := tx.Tokens.RevokeIfValid(ctx, stored)
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("refresh token already used: %w", ErrInvalidToken)
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Warn("refresh_failed", "status", 401, "error", err)
		} else {
			l.Error("refresh_failed", "status", 500, "error", err)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{Type: "token_refreshed", UserID: user.ID.String()})
	return pair, nil
}

// ValidateAccessToken resolves the caller behind a bearer token. The token
// must verify, be an access token and still be valid in the store.
func (s *AuthService) ValidateAccessToken(ctx context.Context, raw string) (*Principal, error) {
	claims, err := s.Issuer.AccessClaimsFromToken(raw)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			s.expire(ctx, raw)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	stored, err := s.Store.Tokens.FindByRawToken(ctx, raw)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Kind != models.TokenAccess || !stored.Valid() {
		return nil, ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid != stored.UserID {
		return nil, ErrInvalidToken
	}

	return &Principal{UserID: uid, Email: claims.Subject, Role: models.Role(claims.Role)}, nil
}

// Logout revokes every valid token of the user.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	n, err := s.Store.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	s.publish(ctx, events.Event{Type: "user_logged_out", UserID: userID.String()})
	l.Info("logout_success", "revoked", n)
	return nil
}

// BootstrapAdmin makes sure the configured account exists with the ADMIN role.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" && password == "" {
		return nil
	}
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap_admin", "email", email)

	user, err := s.Store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			return nil
		}
		if err := s.Store.Users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return err
		}
		l.Info("admin_promoted", "user_id", user.ID)
		return nil
	case !errors.Is(err, repo.ErrNotFound):
		return err
	}

	if password == "" || len(password) > maxPasswordBytes {
		return validationf("admin password must be 1..%d bytes", maxPasswordBytes)
	}
	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    "Admin",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
	}
	if err := s.Store.Users.Create(ctx, admin); err != nil {
		return fromRepo("admin", err)
	}
	l.Info("admin_created", "user_id", admin.ID)
	return nil
}

// issuePair revokes the user's previous tokens and stores a new pair. It must
// run inside a transaction so both writes commit together. The user row lock
// makes concurrent issues for the same user run one after another, so the
// revoke always sees the pair stored by the previous one. Claims come from the
// locked row so a role changed meanwhile is not signed stale.
func (s *AuthService) issuePair(ctx context.Context, tx *repo.Store, user *models.User) (*TokenPair, error) {
	user, err := tx.Users.LockForUpdate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	if _, err := tx.Tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return nil, err
	}

	access, err := s.Issuer.Sign(tokens.KindAccess, user.Email, user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issuer.Sign(tokens.KindRefresh, user.Email, user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}

	for _, t := range []struct {
		signed tokens.Signed
		kind   models.TokenKind
	}{
		{access, models.TokenAccess},
		{refresh, models.TokenRefresh},
	} {
		row := &models.Token{
			Token:     t.signed.Raw,
			UserID:    user.ID,
			Kind:      t.kind,
			IssuedAt:  t.signed.Claims.IssuedAt.Time,
			ExpiresAt: t.signed.ExpiresAt,
		}
		if err := tx.Tokens.Save(ctx, row); err != nil {
			return nil, fmt.Errorf("save %s token: %w", strings.ToLower(string(t.kind)), err)
		}
		s.Metrics.TokenIssued(string(t.signed.Claims.Type))
	}

	return &TokenPair{
		AccessToken:  access.Raw,
		RefreshToken: refresh.Raw,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   refresh.ExpiresAt,
	}, nil
}

// expire flags a token whose exp claim has passed. Failures are only logged.
func (s *AuthService) expire(ctx context.Context, raw string) {
	stored, err := s.Store.Tokens.FindByRawToken(ctx, raw)
	if err != nil || stored.Expired {
		return
	}
	if err := s.Store.Tokens.MarkExpired(ctx, stored); err != nil {
		logging.FromContext(ctx).Warn("mark_expired_failed", "token_id", stored.ID, "error", err)
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publish(ctx, s.Events, event)
}

func newUserFromRequest(req transport.RegisterRequest) (*models.User, string, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	email := normalizeEmail(req.Email)

	switch {
	case first == "" || last == "":
		return nil, "", validationf("first and last name are required")
	case email == "":
		return nil, "", validationf("email is required")
	case !validEmail(email):
		return nil, "", validationf("email %q is malformed", req.Email)
	case req.Password == "":
		return nil, "", validationf("password is required")
	case len(req.Password) > maxPasswordBytes:
		return nil, "", validationf("password longer than %d bytes", maxPasswordBytes)
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return nil, "", validationf("unknown role %q", req.Role)
	}
	if role == models.RoleAdmin {
		return nil, "", validationf("role ADMIN cannot be self-assigned")
	}

	return &models.User{Email: email, FirstName: first, LastName: last, Role: role}, req.Password, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
