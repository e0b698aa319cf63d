package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/testdb"
)

func newToken(userID uuid.UUID, kind models.TokenKind) *models.Token {
	now := time.Now().UTC()
	return &models.Token{
		Token:     uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestTokenRepo_SaveValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tokens := NewTokenRepo(testdb.Open(t))

	tests := []struct {
		name  string
		token *models.Token
	}{
		{name: "nil", token: nil},
		{name: "empty raw token", token: &models.Token{UserID: uuid.New(), Kind: models.TokenAccess}},
		{name: "no user", token: &models.Token{Token: "abc", Kind: models.TokenAccess}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, tokens.Save(ctx, tt.token), ErrInvalidEntity)
		})
	}
}

func TestTokenRepo_ValidPredicateRequiresBothFlagsClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))
	u := newUser(t, s, "jane@x.com", models.RoleStudent)

	valid := newToken(u.ID, models.TokenAccess)
	revoked := newToken(u.ID, models.TokenAccess)
	expired := newToken(u.ID, models.TokenRefresh)
	for _, tok := range []*models.Token{valid, revoked, expired} {
		require.NoError(t, s.Tokens.Save(ctx, tok))
	}
	require.NoError(t, s.Tokens.MarkRevoked(ctx, revoked))
	require.NoError(t, s.Tokens.MarkExpired(ctx, expired))
	assert.True(t, revoked.Revoked)
	assert.True(t, expired.Expired)

	// flags are idempotent
	require.NoError(t, s.Tokens.MarkRevoked(ctx, revoked))

	items, err := s.Tokens.FindAllValidTokensForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, valid.ID, items[0].ID)
}

func TestTokenRepo_FindByRawToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))
	u := newUser(t, s, "jane@x.com", models.RoleStudent)

	tok := newToken(u.ID, models.TokenRefresh)
	require.NoError(t, s.Tokens.Save(ctx, tok))

	got, err := s.Tokens.FindByRawToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.Equal(t, models.TokenRefresh, got.Kind)
	assert.True(t, got.Valid())

	_, err = s.Tokens.FindByRawToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Tokens.Save(ctx, &models.Token{Token: tok.Token, UserID: u.ID, Kind: models.TokenRefresh}), ErrDuplicate)
}

func TestTokenRepo_RevokeIfValidIsCompareAndSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))
	u := newUser(t, s, "jane@x.com", models.RoleStudent)

	tok := newToken(u.ID, models.TokenRefresh)
	require.NoError(t, s.Tokens.Save(ctx, tok))

	first := *tok
	second := *tok

	won, err := s.Tokens.RevokeIfValid(ctx, &first)
	require.NoError(t, err)
	assert.True(t, won)
	assert.True(t, first.Revoked)

	won, err = s.Tokens.RevokeIfValid(ctx, &second)
	require.NoError(t, err)
	assert.False(t, won)
	assert.False(t, second.Revoked)
}

func TestTokenRepo_RevokeAllForUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))
	jane := newUser(t, s, "jane@x.com", models.RoleStudent)
	john := newUser(t, s, "john@x.com", models.RoleStudent)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Tokens.Save(ctx, newToken(jane.ID, models.TokenAccess)))
	}
	other := newToken(john.ID, models.TokenAccess)
	require.NoError(t, s.Tokens.Save(ctx, other))

	n, err := s.Tokens.RevokeAllForUser(ctx, jane.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	items, err := s.Tokens.FindAllValidTokensForUser(ctx, jane.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = s.Tokens.FindAllValidTokensForUser(ctx, john.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
