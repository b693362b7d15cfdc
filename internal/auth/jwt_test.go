package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	tok, err := m.Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	p, err := m.Validate(tok)
	require.NoError(t, err)
	require.Equal(t, Principal{ID: "user-1", Email: "a@x.com", Role: "user"}, p)
}

func TestIssue_DeterministicForSameSecond(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(testSecret, time.Hour).WithClock(fixedClock(now))
	later := m.WithClock(fixedClock(now.Add(400 * time.Millisecond)))

	a, err := m.Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)
	b, err := later.Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)

	require.Equal(t, a, b)

	c, err := m.WithClock(fixedClock(now.Add(time.Second))).Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestValidate_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(testSecret, MaxValidity).WithClock(fixedClock(issuedAt))

	tok, err := m.Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)

	justBefore := m.WithClock(fixedClock(issuedAt.Add(MaxValidity - time.Second)))
	_, err = justBefore.Validate(tok)
	require.NoError(t, err)

	after := m.WithClock(fixedClock(issuedAt.Add(MaxValidity + time.Second)))
	_, err = after.Validate(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongKey(t *testing.T) {
	tok, err := NewManager(testSecret, time.Hour).Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)

	_, err = NewManager("another-secret", time.Hour).Validate(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_TamperedPayload(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	tok, err := m.Issue("user-1", "a@x.com", "user")
	require.NoError(t, err)

	other, err := m.Issue("user-2", "b@x.com", "user")
	require.NoError(t, err)

	// splice user-2's payload onto user-1's signature
	a := strings.Split(tok, ".")
	b := strings.Split(other, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	_, err = m.Validate(forged)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Malformed(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := m.Validate(raw)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func signRaw(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidate_RejectsWrongShape(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	m := NewManager(testSecret, time.Hour)

	tests := []struct {
		name   string
		claims jwt.Claims
	}{
		{
			name: "missing_exp",
			claims: Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1", IssuedAt: jwt.NewNumericDate(now),
			}},
		},
		{
			name: "missing_iat",
			claims: Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "missing_subject",
			claims: Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "missing_role",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1", IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "window_longer_than_seven_days",
			claims: Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1", IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(MaxValidity + time.Hour)),
			}},
		},
		{
			name:   "untyped_map_claims",
			claims: jwt.MapClaims{"sub": 42, "exp": now.Add(time.Hour).Unix(), "iat": now.Unix()},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tok := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), tt.claims)
			_, err := m.Validate(tok)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now().UTC()
	claims := Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}

	hs512 := signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), claims)
	none := signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)

	m := NewManager(testSecret, time.Hour)

	_, err := m.Validate(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate(none)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_ClampsTTL(t *testing.T) {
	require.Equal(t, MaxValidity, NewManager(testSecret, 30*24*time.Hour).TTL())
	require.Equal(t, MaxValidity, NewManager(testSecret, 0).TTL())
	require.Equal(t, time.Hour, NewManager(testSecret, time.Hour).TTL())
}
