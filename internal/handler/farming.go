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

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
)

// FarmingHandler serves fish farming guides.  Reads are public; mutations
// are admin-only.
type FarmingHandler struct {
	Guides *repository.FarmingRepo
}

func NewFarmingHandler(guides *repository.FarmingRepo) *FarmingHandler {
	return &FarmingHandler{Guides: guides}
}

type farmingCreateReq struct {
	FishName     string  `json:"fish_name"`
	Description  string  `json:"description"`
	Requirements string  `json:"requirements"`
	Steps        string  `json:"steps"`
	ImageURL     *string `json:"image_url"`
}

type farmingUpdateReq struct {
	FishName     *string `json:"fish_name"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
	Steps        *string `json:"steps"`
	ImageURL     *string `json:"image_url"`
}

func (h *FarmingHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	guides, err := h.Guides.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"guides": guides})
}

func (h *FarmingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guide id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Guides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guide not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, g)
}

func (h *FarmingHandler) Create(c echo.Context) error {
	var req farmingCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FishName = strings.TrimSpace(req.FishName)
	if req.FishName == "" || req.Description == "" || req.Requirements == "" || req.Steps == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fish_name, description, requirements and steps are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Guides.Create(ctx, model.FarmingGuide{
		FishName:     req.FishName,
		Description:  req.Description,
		Requirements: req.Requirements,
		Steps:        req.Steps,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create guide failed"})
	}
	g, err := h.Guides.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *FarmingHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guide id"})
	}

	var req farmingUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FishName == nil && req.Description == nil && req.Requirements == nil && req.Steps == nil && req.ImageURL == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guides.Update(ctx, id, req.FishName, req.Description, req.Requirements, req.Steps, req.ImageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guide not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update guide failed"})
	}
	g, err := h.Guides.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"msg": "guide updated"})
	}
	return c.JSON(http.StatusOK, g)
}

func (h *FarmingHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guide id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guides.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "guide not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete guide failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "guide deleted"})
}
