package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/handler"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// RegisterAuth mounts the user authentication endpoints under /v1/auth and
// the authenticated profile endpoints under /v1/users.  rateLimit, when
// non-nil, is applied to the credential endpoints only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, issuer *utils.Issuer, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if rateLimit != nil {
		g.Use(rateLimit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/resend-otp", a.ResendOTP)
	g.POST("/refresh", a.Refresh)
	g.DELETE("/logout", a.Logout)

	users := e.Group("/v1/users", middleware.Auth(issuer))
	users.GET("/profile", u.Profile)
	users.PATCH("/profile", u.UpdateProfile)
	users.PUT("/change-password", u.ChangePassword)
}
