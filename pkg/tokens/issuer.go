package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source, used to issue already expired tokens in tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

type Signed struct {
	Raw       string
	Claims    Claims
	ExpiresAt time.Time
}

func (i *Issuer) Sign(kind Kind, email, userID, role string) (Signed, error) {
	secret, ttl := i.cfg.AccessSecret, i.cfg.AccessTTL
	if kind == KindRefresh {
		secret, ttl = i.cfg.RefreshSecret, i.cfg.RefreshTTL
	}

	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Signed{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Signed{Raw: raw, Claims: claims, ExpiresAt: exp}, nil
}

func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) AccessClaimsFromToken(raw string) (*Claims, error) {
	return i.parse(raw, KindAccess, i.cfg.AccessSecret)
}

func (i *Issuer) RefreshClaimsFromToken(raw string) (*Claims, error) {
	return i.parse(raw, KindRefresh, i.cfg.RefreshSecret)
}

func (i *Issuer) parse(raw string, want Kind, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
