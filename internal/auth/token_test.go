package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	v := svc.Verify(token)
	require.True(t, v.Valid())
	require.Equal(t, "alice", v.Subject)
	require.Equal(t, TokenValid, v.Status)
}

func TestTokenIssueRequiresSubject(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	_, err := svc.Issue("")
	require.Error(t, err)
}

func TestTokenVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	v := svc.Verify(token)
	require.False(t, v.Valid())
	require.Equal(t, TokenExpired, v.Status)
	require.Empty(t, v.Subject)
}

func TestTokenVerifyRejections(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	now := time.Now()

	otherKey, err := NewTokenService("other-secret", time.Hour).Issue("alice")
	require.NoError(t, err)

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status TokenStatus
	}{
		{name: "garbage", token: "not-a-token", status: TokenMalformed},
		{name: "empty", token: "", status: TokenMalformed},
		{name: "foreign key", token: otherKey, status: TokenBadSignature},
		{name: "hs384", token: hs384, status: TokenBadSignature},
		{name: "alg none", token: unsigned, status: TokenBadSignature},
		{name: "no subject", token: noSubject, status: TokenMalformed},
		{name: "no expiry", token: noExpiry, status: TokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := svc.Verify(tt.token)
			require.False(t, v.Valid())
			require.Equal(t, tt.status, v.Status, "got %s", v.Status)
		})
	}
}

func TestTokenStatusString(t *testing.T) {
	require.Equal(t, "expired", TokenExpired.String())
	require.Equal(t, "bad_signature", TokenBadSignature.String())
	require.Equal(t, "TokenStatus(9)", TokenStatus(9).String())
}
