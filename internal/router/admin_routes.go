package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/handler"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// RegisterAdmin mounts the admin surface: auth under /v1/admin/auth, the
// management and content mutation endpoints under /v1/admin behind the
// admin guard.  Every admin request re-checks the account row, so a
// suspended admin is locked out mid-session.
func RegisterAdmin(
	e *echo.Echo,
	a *handler.AdminHandler,
	cat *handler.CatalogHandler,
	gal *handler.GalleryHandler,
	rec *handler.RecipeHandler,
	farm *handler.FarmingHandler,
	mail *handler.EmailHandler,
	issuer *utils.Issuer,
	store middleware.AdminStore,
	rateLimit echo.MiddlewareFunc,
) {
	auth := e.Group("/v1/admin/auth")
	if rateLimit != nil {
		auth.Use(rateLimit)
	}
	auth.POST("/register", a.Create)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.DELETE("/logout", a.Logout)

	g := e.Group("/v1/admin", middleware.AdminAuth(issuer, store))
	g.GET("/profile", a.Profile)
	g.PUT("/admins/:id/password", a.UpdatePassword)
	g.GET("/email-stats", mail.Stats)

	super := g.Group("", middleware.RequireCapability(model.CapManageAdmins))
	super.GET("/admins", a.ListAll)
	super.POST("/admins", a.Create)
	super.PATCH("/admins/:id/status", a.UpdateStatus)

	g.POST("/catalog/:id/approve", cat.Approve)
	g.POST("/catalog/:id/reject", cat.Reject)

	g.POST("/gallery", gal.Create)
	g.PATCH("/gallery/:id", gal.Update)
	g.DELETE("/gallery/:id", gal.Delete)

	g.POST("/recipes", rec.Create)
	g.PATCH("/recipes/:id", rec.Update)
	g.DELETE("/recipes/:id", rec.Delete)

	g.POST("/farming", farm.Create)
	g.PATCH("/farming/:id", farm.Update)
	g.DELETE("/farming/:id", farm.Delete)
}
