package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Session cookie names.  User and admin sessions use disjoint cookies so a
// browser can hold both at once.
const (
	userAccessCookie   = "accessToken"
	userRefreshCookie  = "refreshToken"
	adminAccessCookie  = "adminAccessToken"
	adminRefreshCookie = "adminRefreshToken"
)

// adminAccessCookieTTL caps the admin access cookie at 15 minutes even
// though the JWT inside lives 8 hours.  Inherited behavior, kept as is.
const adminAccessCookieTTL = 15 * time.Minute

// setAuthCookie writes an HTTP-only, SameSite=Strict session cookie.
// Secure is enabled outside dev so tokens never travel over plain HTTP in
// production.
func setAuthCookie(c echo.Context, env, name, value string, maxAge time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   env == "prod",
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookie expires a session cookie immediately.
func clearAuthCookie(c echo.Context, env, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env == "prod",
		SameSite: http.SameSiteStrictMode,
	})
}

// clearUserCookies removes both user session cookies.  Called
// unconditionally on logout: being logged out client-side must never
// depend on backend availability.
func clearUserCookies(c echo.Context, env string) {
	clearAuthCookie(c, env, userAccessCookie)
	clearAuthCookie(c, env, userRefreshCookie)
}

// clearAdminCookies removes both admin session cookies.
func clearAdminCookies(c echo.Context, env string) {
	clearAuthCookie(c, env, adminAccessCookie)
	clearAuthCookie(c, env, adminRefreshCookie)
}
