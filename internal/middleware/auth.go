package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/utils"
)

// Context keys populated by the guards.
const (
	CtxUserID = "user_id"
	CtxName   = "name"
	CtxEmail  = "email"
)

// Auth returns an Echo middleware that enforces a valid user access token
// and injects the token's identity into the request context.  The token is
// resolved from the accessToken cookie first, falling back to an
// Authorization bearer header for non-browser clients.
//
// Failure modes are distinct on purpose: a missing token is 401, an
// expired-but-authentic token is 401 with "expired": true so clients know
// to call refresh instead of showing a login page, and any other
// verification failure is 403.
func Auth(issuer *utils.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c, "accessToken")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
			}
			claims, err := issuer.VerifyUserAccess(raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired", "expired": true})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxName, claims.Name)
			c.Set(CtxEmail, claims.Email)
			return next(c)
		}
	}
}

// OptionalAuth resolves and verifies a token exactly like Auth but never
// fails the request: an absent or invalid token simply leaves no identity
// in the context.  Used for endpoints that behave differently for
// anonymous and authenticated callers.
func OptionalAuth(issuer *utils.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c, "accessToken")
			if raw == "" {
				return next(c)
			}
			claims, err := issuer.VerifyUserAccess(raw)
			if err != nil {
				return next(c)
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxName, claims.Name)
			c.Set(CtxEmail, claims.Email)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id, or 0 when no identity was
// attached (anonymous request through OptionalAuth).
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}

// tokenFromRequest reads the named HTTP-only cookie first, then the
// Authorization header.  Cookie wins when both are present.
func tokenFromRequest(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
