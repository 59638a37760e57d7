package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

func testIssuer() *utils.Issuer {
	return &utils.Issuer{
		UserAccessSecret:   "ua",
		UserRefreshSecret:  "ur",
		AdminAccessSecret:  "aa",
		AdminRefreshSecret: "ar",
		UserAccessTTL:      15 * time.Minute,
		AdminAccessTTL:     8 * time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
	}
}

func runGuard(mw echo.MiddlewareFunc, mutate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, c, called
}

func TestAuthGuard(t *testing.T) {
	t.Parallel()
	iss := testIssuer()
	claims := utils.UserClaims{UserID: 9, Name: "Dina", Email: "dina@example.com"}

	t.Run("missing token is 401", func(t *testing.T) {
		rec, _, called := runGuard(Auth(iss), nil)
		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cookie token passes and attaches identity", func(t *testing.T) {
		tok, err := iss.UserAccessToken(claims)
		require.NoError(t, err)
		_, c, called := runGuard(Auth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok.Token})
		})
		require.True(t, called)
		require.Equal(t, uint64(9), UserID(c))
		require.Equal(t, "dina@example.com", c.Get(CtxEmail))
	})

	t.Run("bearer header works without cookie", func(t *testing.T) {
		tok, err := iss.UserAccessToken(claims)
		require.NoError(t, err)
		_, _, called := runGuard(Auth(iss), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+tok.Token)
		})
		require.True(t, called)
	})

	t.Run("cookie wins over bearer header", func(t *testing.T) {
		tok, err := iss.UserAccessToken(claims)
		require.NoError(t, err)
		rec, _, called := runGuard(Auth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: "garbage"})
			r.Header.Set("Authorization", "Bearer "+tok.Token)
		})
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("expired token is 401 with expired flag", func(t *testing.T) {
		short := testIssuer()
		short.UserAccessTTL = -time.Minute
		tok, err := short.UserAccessToken(claims)
		require.NoError(t, err)

		rec, _, called := runGuard(Auth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok.Token})
		})
		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"expired":true`)
	})

	t.Run("tampered token is 403", func(t *testing.T) {
		rec, _, called := runGuard(Auth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: "a.b.c"})
		})
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin token is rejected on user routes", func(t *testing.T) {
		tok, err := iss.AdminAccessToken(utils.AdminClaims{AdminID: 1, Role: model.RoleAdmin})
		require.NoError(t, err)
		rec, _, called := runGuard(Auth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok.Token})
		})
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOptionalAuthGuard(t *testing.T) {
	t.Parallel()
	iss := testIssuer()

	t.Run("anonymous passes with no identity", func(t *testing.T) {
		rec, c, called := runGuard(OptionalAuth(iss), nil)
		require.True(t, called)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Zero(t, UserID(c))
	})

	t.Run("invalid token passes with no identity", func(t *testing.T) {
		_, c, called := runGuard(OptionalAuth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: "garbage"})
		})
		require.True(t, called)
		require.Zero(t, UserID(c))
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		tok, err := iss.UserAccessToken(utils.UserClaims{UserID: 4, Email: "x@y.z"})
		require.NoError(t, err)
		_, c, called := runGuard(OptionalAuth(iss), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok.Token})
		})
		require.True(t, called)
		require.Equal(t, uint64(4), UserID(c))
	})
}

type staticAdminStore struct {
	admin model.Admin
	err   error
}

func (s staticAdminStore) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	if s.err != nil {
		return model.Admin{}, s.err
	}
	return s.admin, nil
}

func TestAdminAuthGuard(t *testing.T) {
	t.Parallel()
	iss := testIssuer()
	claims := utils.AdminClaims{AdminID: 2, Name: "Root", Email: "root@example.com", Role: model.RoleSuperAdmin}

	withToken := func(t *testing.T) func(*http.Request) {
		t.Helper()
		tok, err := iss.AdminAccessToken(claims)
		require.NoError(t, err)
		return func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "adminAccessToken", Value: tok.Token})
		}
	}

	t.Run("active admin passes with role attached", func(t *testing.T) {
		store := staticAdminStore{admin: model.Admin{ID: 2, Role: model.RoleSuperAdmin, Status: model.AdminActive}}
		_, c, called := runGuard(AdminAuth(iss, store), withToken(t))
		require.True(t, called)
		require.Equal(t, uint64(2), AdminID(c))
		require.Equal(t, model.RoleSuperAdmin, c.Get(CtxAdminRole))
	})

	t.Run("deleted admin row is 401", func(t *testing.T) {
		store := staticAdminStore{err: sql.ErrNoRows}
		rec, _, called := runGuard(AdminAuth(iss, store), withToken(t))
		require.False(t, called)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("suspended admin is 403 despite valid token", func(t *testing.T) {
		store := staticAdminStore{admin: model.Admin{ID: 2, Role: model.RoleAdmin, Status: model.AdminSuspended}}
		rec, _, called := runGuard(AdminAuth(iss, store), withToken(t))
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "suspended")
	})

	t.Run("user token is rejected", func(t *testing.T) {
		tok, err := iss.UserAccessToken(utils.UserClaims{UserID: 2})
		require.NoError(t, err)
		store := staticAdminStore{admin: model.Admin{ID: 2, Status: model.AdminActive}}
		rec, _, called := runGuard(AdminAuth(iss, store), func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "adminAccessToken", Value: tok.Token})
		})
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireCapability(t *testing.T) {
	t.Parallel()

	run := func(cap model.Capability, role any) (*httptest.ResponseRecorder, bool) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxAdminRole, role)
		}
		called := false
		h := RequireCapability(cap)(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})
		_ = h(c)
		return rec, called
	}

	t.Run("super admin can manage admins", func(t *testing.T) {
		_, called := run(model.CapManageAdmins, model.RoleSuperAdmin)
		require.True(t, called)
	})

	t.Run("plain admin cannot manage admins", func(t *testing.T) {
		rec, called := run(model.CapManageAdmins, model.RoleAdmin)
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("plain admin keeps its own capabilities", func(t *testing.T) {
		_, called := run(model.CapViewAnalytics, model.RoleAdmin)
		require.True(t, called)
	})

	t.Run("missing role is 403", func(t *testing.T) {
		rec, called := run(model.CapManageAdmins, nil)
		require.False(t, called)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
