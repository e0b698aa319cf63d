package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return NewIssuer(Config{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
}

func TestIssuer_Sign_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	before := time.Now().UTC()

	access, err := iss.Sign(KindAccess, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)
	require.NotEmpty(t, access.Raw)

	claims, err := iss.AccessClaimsFromToken(access.Raw)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", claims.Subject)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "STUDENT", claims.Role)
	assert.Equal(t, KindAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, before.Add(DefaultAccessTTL), claims.ExpiresAt.Time, 2*time.Second)

	refresh, err := iss.Sign(KindRefresh, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)
	rc, err := iss.RefreshClaimsFromToken(refresh.Raw)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, rc.Type)
	assert.WithinDuration(t, before.Add(DefaultRefreshTTL), rc.ExpiresAt.Time, 2*time.Second)
}

func TestIssuer_Sign_RawTokensAreUnique(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	a, err := iss.Sign(KindAccess, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)
	b, err := iss.Sign(KindAccess, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)

	assert.NotEqual(t, a.Raw, b.Raw)
}

func TestIssuer_Parse_Failures(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	access, err := iss.Sign(KindAccess, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)
	refresh, err := iss.Sign(KindRefresh, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)

	expired, err := iss.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		Sign(KindAccess, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)

	other := NewIssuer(Config{AccessSecret: []byte("other"), RefreshSecret: []byte("other")})
	forged, err := other.Sign(KindAccess, "jane@x.com", "user-1", "ADMIN")
	require.NoError(t, err)

	parts := strings.Split(access.Raw, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "jane@x.com", "uid": "user-1", "typ": "access", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		parse   func(string) (*Claims, error)
		wantErr error
	}{
		{name: "garbage", raw: "not-a-valid-jwt", parse: iss.AccessClaimsFromToken, wantErr: ErrMalformed},
		{name: "expired", raw: expired.Raw, parse: iss.AccessClaimsFromToken, wantErr: ErrExpired},
		{name: "foreign secret", raw: forged.Raw, parse: iss.AccessClaimsFromToken, wantErr: ErrSignature},
		{name: "tampered signature", raw: tampered, parse: iss.AccessClaimsFromToken, wantErr: ErrSignature},
		{name: "alg none", raw: noneToken, parse: iss.AccessClaimsFromToken, wantErr: ErrSignature},
		{name: "refresh as access", raw: refresh.Raw, parse: iss.AccessClaimsFromToken, wantErr: ErrSignature},
		{name: "access as refresh", raw: access.Raw, parse: iss.RefreshClaimsFromToken, wantErr: ErrSignature},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := tt.parse(tt.raw)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIssuer_Parse_WrongTypeWithSharedSecret(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(Config{AccessSecret: []byte("shared"), RefreshSecret: []byte("shared")})
	refresh, err := iss.Sign(KindRefresh, "jane@x.com", "user-1", "STUDENT")
	require.NoError(t, err)

	_, err = iss.AccessClaimsFromToken(refresh.Raw)
	assert.ErrorIs(t, err, ErrWrongType)
}
