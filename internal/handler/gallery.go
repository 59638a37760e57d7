package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/repository"
)

const (
	galleryNameMax = 100
	galleryDescMax = 1000
)

// GalleryHandler serves the public fish image gallery.  Reads are public
// and cached; mutations are admin-only.
type GalleryHandler struct {
	Gallery *repository.GalleryRepo
}

func NewGalleryHandler(gallery *repository.GalleryRepo) *GalleryHandler {
	return &GalleryHandler{Gallery: gallery}
}

type galleryCreateReq struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type galleryUpdateReq struct {
	Name        *string `json:"name"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
}

// List returns gallery images newest first, filtered by ?q against name
// and description.
func (h *GalleryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	images, err := h.Gallery.List(ctx, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"images": images})
}

func (h *GalleryHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	img, err := h.Gallery.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, img)
}

func (h *GalleryHandler) Create(c echo.Context) error {
	var req galleryCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Image == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, image and description are required"})
	}
	if len(req.Name) > galleryNameMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name too long"})
	}
	if len(req.Description) > galleryDescMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description too long"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Gallery.Create(ctx, req.Name, req.Image, req.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create image failed"})
	}
	img, err := h.Gallery.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *GalleryHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image id"})
	}

	var req galleryUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Image == nil && req.Description == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Name != nil && (strings.TrimSpace(*req.Name) == "" || len(*req.Name) > galleryNameMax) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid name"})
	}
	if req.Description != nil && (strings.TrimSpace(*req.Description) == "" || len(*req.Description) > galleryDescMax) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid description"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Gallery.Update(ctx, id, req.Name, req.Image, req.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update image failed"})
	}
	img, err := h.Gallery.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"msg": "image updated"})
	}
	return c.JSON(http.StatusOK, img)
}

func (h *GalleryHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Gallery.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete image failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "image deleted"})
}
