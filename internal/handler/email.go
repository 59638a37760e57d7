package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/email"
)

// EmailHandler exposes outbound mail metering to admins.
type EmailHandler struct {
	Limiter *email.Limiter
}

func NewEmailHandler(limiter *email.Limiter) *EmailHandler {
	return &EmailHandler{Limiter: limiter}
}

// Stats returns the current daily/hourly send counts against their limits.
func (h *EmailHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	usage, err := h.Limiter.CurrentUsage(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "usage query failed"})
	}
	return c.JSON(http.StatusOK, usage)
}
