package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/email"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
)

// catalogFeedLimit caps the public feed at the newest entries.
const catalogFeedLimit = 20

// CatalogStore is the catalog persistence surface, satisfied by
// repository.CatalogRepo.
type CatalogStore interface {
	Create(ctx context.Context, e model.CatalogEntry) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.CatalogEntryWithUser, error)
	ListLatest(ctx context.Context, userID uint64, limit int) ([]model.CatalogEntryWithUser, error)
}

// CatalogHandler serves the shared community catalog.
type CatalogHandler struct {
	Catalog CatalogStore
	Mailer  email.Sender
	Limiter *email.Limiter
}

func NewCatalogHandler(catalog CatalogStore, mailer email.Sender, limiter *email.Limiter) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Mailer: mailer, Limiter: limiter}
}

type catalogCreateReq struct {
	FishName          string   `json:"fish_name"`
	Probability       *float64 `json:"probability"`
	Habitat           *string  `json:"habitat"`
	ConsumptionSafety *string  `json:"consumption_safety"`
	Image             *string  `json:"image"`
	Location          *string  `json:"location"`
	FoundAt           *string  `json:"found_at"`
	Condition         *string  `json:"condition"`
	SafeToEat         bool     `json:"safe_to_eat"`
	Notes             *string  `json:"notes"`
}

type catalogRejectReq struct {
	Reason string `json:"reason"`
}

// Submit adds an entry to the community catalog and lets the submitter know
// it is under review.  The notification is best-effort.
func (h *CatalogHandler) Submit(c echo.Context) error {
	userID := middleware.UserID(c)

	var req catalogCreateReq
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

	id, err := h.Catalog.Create(ctx, model.CatalogEntry{
		UserID:            userID,
		FishName:          req.FishName,
		Probability:       req.Probability,
		Habitat:           req.Habitat,
		ConsumptionSafety: req.ConsumptionSafety,
		Image:             req.Image,
		Location:          req.Location,
		FoundAt:           req.FoundAt,
		Condition:         req.Condition,
		SafeToEat:         req.SafeToEat,
		Notes:             req.Notes,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save entry failed"})
	}

	entry, err := h.Catalog.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}

	if h.Limiter.CanSend(ctx) {
		if err := h.Mailer.SendCatalogReview(entry.UserEmail, entry.UserName, entry.FishName); err != nil {
			log.Printf("catalog: review mail to %s failed: %v", entry.UserEmail, err)
		} else {
			h.Limiter.Record(ctx, email.KindCatalogReview)
		}
	}

	return c.JSON(http.StatusCreated, entry)
}

// List returns the newest catalog entries.  With ?my=true and an
// authenticated caller only their own submissions are returned; the route
// sits behind the optional guard so anonymous readers get the public feed.
func (h *CatalogHandler) List(c echo.Context) error {
	var userID uint64
	if c.QueryParam("my") == "true" {
		userID = middleware.UserID(c)
		if userID == 0 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required for my entries"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Catalog.ListLatest(ctx, userID, catalogFeedLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}

// Approve emails the submitter that their entry passed review.
func (h *CatalogHandler) Approve(c echo.Context) error {
	entry, ok := h.reviewTarget(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.Limiter.CanSend(ctx) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "email quota exhausted, try again later"})
	}
	if err := h.Mailer.SendCatalogApproved(entry.UserEmail, entry.UserName, entry.FishName); err != nil {
		log.Printf("catalog: approved mail to %s failed: %v", entry.UserEmail, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send mail failed"})
	}
	h.Limiter.Record(ctx, email.KindCatalogApproved)

	return c.JSON(http.StatusOK, echo.Map{"msg": "submitter notified of approval"})
}

// Reject emails the submitter that their entry was rejected, with the
// reviewer's reason.
func (h *CatalogHandler) Reject(c echo.Context) error {
	entry, ok := h.reviewTarget(c)
	if !ok {
		return nil
	}

	var req catalogRejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.Limiter.CanSend(ctx) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "email quota exhausted, try again later"})
	}
	if err := h.Mailer.SendCatalogRejected(entry.UserEmail, entry.UserName, entry.FishName, req.Reason); err != nil {
		log.Printf("catalog: rejected mail to %s failed: %v", entry.UserEmail, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send mail failed"})
	}
	h.Limiter.Record(ctx, email.KindCatalogRejected)

	return c.JSON(http.StatusOK, echo.Map{"msg": "submitter notified of rejection"})
}

// reviewTarget loads the entry named in the path.  On failure the error
// response has already been written and ok is false.
func (h *CatalogHandler) reviewTarget(c echo.Context) (model.CatalogEntryWithUser, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
		return model.CatalogEntryWithUser{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.Catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return model.CatalogEntryWithUser{}, false
	}
	return entry, true
}
