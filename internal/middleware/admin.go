package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// Context keys populated by the admin guard.
const (
	CtxAdminID    = "admin_id"
	CtxAdminName  = "admin_name"
	CtxAdminEmail = "admin_email"
	CtxAdminRole  = "admin_role"
)

// AdminStore is the slice of the admin repository the guard needs.
type AdminStore interface {
	GetByID(ctx context.Context, id uint64) (model.Admin, error)
}

// AdminAuth enforces a valid admin access token and re-checks the admin row
// on every request: a token stays cryptographically valid for hours, but a
// suspension must take effect immediately, so the live status wins over the
// token.  Token resolution and error shape mirror Auth, with the
// adminAccessToken cookie.
func AdminAuth(issuer *utils.Issuer, store AdminStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c, "adminAccessToken")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing admin token"})
			}
			claims, err := issuer.VerifyAdminAccess(raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "admin token expired", "expired": true})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid admin token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			admin, err := store.GetByID(ctx, claims.AdminID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "admin not found"})
			}
			if admin.Status != model.AdminActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin account " + admin.Status})
			}

			c.Set(CtxAdminID, admin.ID)
			c.Set(CtxAdminName, admin.Name)
			c.Set(CtxAdminEmail, admin.Email)
			c.Set(CtxAdminRole, admin.Role)
			return next(c)
		}
	}
}

// RequireCapability returns a middleware that enforces that the
// authenticated admin's role grants the capability, per the static
// role table in the model package.  It assumes AdminAuth already ran
// and stored the role in the context; a missing or unknown role is
// rejected with 403.
func RequireCapability(cap model.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxAdminRole).(string)
			if !ok || !model.RoleCan(role, cap) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// AdminID returns the authenticated admin's id, or 0 when absent.
func AdminID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxAdminID).(uint64); ok {
		return v
	}
	return 0
}
