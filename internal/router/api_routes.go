package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/handler"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// RegisterHistory mounts the private recognition history CRUD under
// /v1/history.
func RegisterHistory(e *echo.Echo, h *handler.HistoryHandler, issuer *utils.Issuer) {
	g := e.Group("/v1/history", middleware.Auth(issuer))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterCatalog mounts the community catalog: the feed is readable by
// anyone (the optional guard only resolves identity for ?my=true),
// submission needs a session.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, issuer *utils.Issuer) {
	e.GET("/v1/catalog", h.List, middleware.OptionalAuth(issuer))
	e.POST("/v1/catalog", h.Submit, middleware.Auth(issuer))
}

// RegisterPredict mounts the image classification endpoint.
func RegisterPredict(e *echo.Echo, h *handler.PredictHandler) {
	e.POST("/v1/predict-image", h.Predict)
}

// RegisterPublic mounts the unauthenticated browse endpoints.  cache, when
// non-nil, wraps the read-heavy list/detail routes.
func RegisterPublic(e *echo.Echo, g *handler.GalleryHandler, r *handler.RecipeHandler, f *handler.FarmingHandler, cache echo.MiddlewareFunc) {
	grp := e.Group("/v1")
	if cache != nil {
		grp.Use(cache)
	}
	grp.GET("/gallery", g.List)
	grp.GET("/gallery/:id", g.Get)
	grp.GET("/recipes", r.List)
	grp.GET("/recipes/fish-names", r.FishNames)
	grp.GET("/recipes/:id", r.Get)
	grp.GET("/farming", f.List)
	grp.GET("/farming/:id", f.Get)
}
