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

	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatchStore is the history persistence surface, satisfied by
// repository.CatchRepo.
type CatchStore interface {
	Create(ctx context.Context, rec model.CatchRecord) (uint64, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.CatchRecord, error)
	CountByUser(ctx context.Context, userID uint64) (int, error)
	GetByID(ctx context.Context, id, userID uint64) (model.CatchRecord, error)
	Update(ctx context.Context, id, userID uint64, fishName, habitat, safety, notes, image *string) error
	Delete(ctx context.Context, id, userID uint64) error
	Stats(ctx context.Context, userID uint64) (repository.CatchStats, error)
}

// HistoryHandler serves a user's private recognition history.
type HistoryHandler struct {
	Catches CatchStore
}

func NewHistoryHandler(catches CatchStore) *HistoryHandler {
	return &HistoryHandler{Catches: catches}
}

type catchCreateReq struct {
	FishName          string   `json:"fish_name"`
	PredictedClass    *string  `json:"predicted_class"`
	Probability       *float64 `json:"probability"`
	Habitat           *string  `json:"habitat"`
	ConsumptionSafety *string  `json:"consumption_safety"`
	Image             *string  `json:"image"`
	Notes             *string  `json:"notes"`
}

type catchUpdateReq struct {
	FishName          *string `json:"fish_name"`
	Habitat           *string `json:"habitat"`
	ConsumptionSafety *string `json:"consumption_safety"`
	Notes             *string `json:"notes"`
	Image             *string `json:"image"`
}

// Create saves a recognition result to the caller's history.
func (h *HistoryHandler) Create(c echo.Context) error {
	userID := middleware.UserID(c)

	var req catchCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FishName = strings.TrimSpace(req.FishName)
	if req.FishName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fish_name is required"})
	}
	if req.Probability != nil && (*req.Probability < 0 || *req.Probability > 1) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "probability must be between 0 and 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Catches.Create(ctx, model.CatchRecord{
		UserID:            userID,
		FishName:          req.FishName,
		PredictedClass:    req.PredictedClass,
		Probability:       req.Probability,
		Habitat:           req.Habitat,
		ConsumptionSafety: req.ConsumptionSafety,
		Image:             req.Image,
		Notes:             req.Notes,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save record failed"})
	}

	rec, err := h.Catches.GetByID(ctx, id, userID)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, rec)
}

// List returns the caller's history newest first, paginated via ?page and
// ?limit.
func (h *HistoryHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("limit"))
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Catches.ListByUser(ctx, userID, size, (page-1)*size)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total, err := h.Catches.CountByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"records": records,
		"page":    page,
		"limit":   size,
		"total":   total,
	})
}

// Get returns a single record; other users' records read as not found.
func (h *HistoryHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Catches.GetByID(ctx, id, userID)
	if err != nil {
		return historyLookupError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Update patches the user-editable fields of a record.  The classifier
// outputs (predicted_class, probability) are immutable.
func (h *HistoryHandler) Update(c echo.Context) error {
	userID := middleware.UserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	var req catchUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FishName == nil && req.Habitat == nil && req.ConsumptionSafety == nil && req.Notes == nil && req.Image == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.FishName != nil && strings.TrimSpace(*req.FishName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fish_name cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catches.Update(ctx, id, userID, req.FishName, req.Habitat, req.ConsumptionSafety, req.Notes, req.Image); err != nil {
		return historyLookupError(c, err)
	}
	rec, err := h.Catches.GetByID(ctx, id, userID)
	if err != nil {
		return historyLookupError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete removes a record owned by the caller.
func (h *HistoryHandler) Delete(c echo.Context) error {
	userID := middleware.UserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catches.Delete(ctx, id, userID); err != nil {
		return historyLookupError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "record deleted"})
}

// Stats returns totals, last-7-day count and a per-class breakdown for the
// caller's history.
func (h *HistoryHandler) Stats(c echo.Context) error {
	userID := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Catches.Stats(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

func historyLookupError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}
