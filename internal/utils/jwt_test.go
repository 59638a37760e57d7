package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return &Issuer{
		UserAccessSecret:   "user-access-secret",
		UserRefreshSecret:  "user-refresh-secret",
		AdminAccessSecret:  "admin-access-secret",
		AdminRefreshSecret: "admin-refresh-secret",
		UserAccessTTL:      15 * time.Minute,
		AdminAccessTTL:     8 * time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	t.Parallel()
	iss := testIssuer()
	in := UserClaims{UserID: 42, Name: "Dina", Email: "dina@example.com"}

	tok, err := iss.UserAccessToken(in)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	require.WithinDuration(t, time.Now().Add(iss.UserAccessTTL), tok.Exp, 5*time.Second)

	out, err := iss.VerifyUserAccess(tok.Token)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	t.Parallel()
	iss := testIssuer()
	in := AdminClaims{AdminID: 7, Name: "Root", Email: "root@example.com", Role: "super_admin"}

	tok, err := iss.AdminAccessToken(in)
	require.NoError(t, err)

	out, err := iss.VerifyAdminAccess(tok.Token)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestTokenKindsAreDisjoint(t *testing.T) {
	t.Parallel()
	iss := testIssuer()

	access, err := iss.UserAccessToken(UserClaims{UserID: 1, Email: "a@b.c"})
	require.NoError(t, err)
	refresh, err := iss.UserRefreshToken(UserClaims{UserID: 1, Email: "a@b.c"})
	require.NoError(t, err)
	adminAccess, err := iss.AdminAccessToken(AdminClaims{AdminID: 1, Email: "a@b.c", Role: "admin"})
	require.NoError(t, err)

	t.Run("access token fails refresh verification", func(t *testing.T) {
		_, err := iss.VerifyUserRefresh(access.Token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
	t.Run("refresh token fails access verification", func(t *testing.T) {
		_, err := iss.VerifyUserAccess(refresh.Token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
	t.Run("admin token fails user verification", func(t *testing.T) {
		_, err := iss.VerifyUserAccess(adminAccess.Token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
	t.Run("user token fails admin verification", func(t *testing.T) {
		_, err := iss.VerifyAdminAccess(access.Token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestExpiredTokenIsDistinct(t *testing.T) {
	t.Parallel()
	iss := testIssuer()
	iss.UserAccessTTL = -time.Minute

	tok, err := iss.UserAccessToken(UserClaims{UserID: 3, Email: "x@y.z"})
	require.NoError(t, err)

	_, err = iss.VerifyUserAccess(tok.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageTokenIsInvalid(t *testing.T) {
	t.Parallel()
	iss := testIssuer()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := iss.VerifyUserAccess(raw)
		require.ErrorIs(t, err, ErrTokenInvalid)
	}
}
