package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/config"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/repository"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// AdminStore mirrors the admin repository surface the handler needs.
// *repository.AdminRepo satisfies it.
type AdminStore interface {
	Create(ctx context.Context, name, phone, email, gender, password, role string, createdBy *uint64, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	GetByID(ctx context.Context, id uint64) (model.Admin, error)
	GetByRefreshToken(ctx context.Context, token string) (model.Admin, error)
	SetRefreshToken(ctx context.Context, id uint64, token string) error
	ClearRefreshToken(ctx context.Context, token string) error
	UpdateStatus(ctx context.Context, id uint64, status string, updatedBy uint64) error
	UpdatePassword(ctx context.Context, id uint64, hash string, updatedBy uint64) error
	ListAll(ctx context.Context) ([]model.Admin, error)
}

type AdminHandler struct {
	Cfg    config.Config
	Admins AdminStore
	Issuer *utils.Issuer
}

func NewAdminHandler(cfg config.Config, admins AdminStore, issuer *utils.Issuer) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admins: admins, Issuer: issuer}
}

type adminCreateReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type adminStatusReq struct {
	Status string `json:"status"`
}

type adminPasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type adminPart struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func publicAdmin(a model.Admin) adminPart {
	return adminPart{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, Status: a.Status}
}

// Create registers a new admin account.  The route is mounted both
// unauthenticated (bootstrap of the first account) and behind the
// super-admin guard; when a caller is present they are recorded as
// created_by.
func (h *AdminHandler) Create(c echo.Context) error {
	var req adminCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Phone == "" || req.Email == "" || req.Gender == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	if len(req.Password) < utils.MinPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	if req.Role == "" {
		req.Role = model.RoleAdmin
	}
	if !model.ValidAdminRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or super_admin"})
	}

	var createdBy *uint64
	if id := middleware.AdminID(c); id != 0 {
		createdBy = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Admins.Create(ctx, req.Name, req.Phone, req.Email, req.Gender, req.Password, req.Role, createdBy, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrPhoneExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"msg": "admin created",
		"admin": adminPart{
			ID: id, Name: req.Name, Email: req.Email, Role: req.Role, Status: model.AdminActive,
		},
	})
}

// Login authenticates an admin and issues the admin token pair.  A
// non-active account is rejected after the password check so suspension
// cannot be probed without credentials.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "email not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect password"})
	}
	if a.Status != model.AdminActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin account " + a.Status})
	}

	claims := utils.AdminClaims{AdminID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
	access, err := h.Issuer.AdminAccessToken(claims)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	refresh, err := h.Issuer.AdminRefreshToken(claims)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Admins.SetRefreshToken(ctx, a.ID, refresh.Token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store session failed"})
	}

	// Access cookie is deliberately shorter-lived than the JWT inside it;
	// the refresh endpoint covers the rest of the shift.
	setAuthCookie(c, h.Cfg.Env, adminAccessCookie, access.Token, adminAccessCookieTTL)
	setAuthCookie(c, h.Cfg.Env, adminRefreshCookie, refresh.Token, time.Until(refresh.Exp))

	return c.JSON(http.StatusOK, echo.Map{
		"msg":         "login successful",
		"accessToken": access.Token,
		"admin":       publicAdmin(a),
	})
}

// Refresh mints a fresh admin access token from the admin refresh cookie.
func (h *AdminHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(adminRefreshCookie)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token missing", "needLogin": true})
	}
	raw := ck.Value

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByRefreshToken(ctx, raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token", "needLogin": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Status != model.AdminActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin account " + a.Status, "needLogin": true})
	}

	if _, err := h.Issuer.VerifyAdminRefresh(raw); err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token expired", "needLogin": true})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token", "needLogin": true})
	}

	access, err := h.Issuer.AdminAccessToken(utils.AdminClaims{AdminID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	setAuthCookie(c, h.Cfg.Env, adminAccessCookie, access.Token, adminAccessCookieTTL)

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": access.Token,
		"admin":       publicAdmin(a),
	})
}

// Logout mirrors the user flow: clear the stored slot on match, clear the
// cookies regardless.
func (h *AdminHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(adminRefreshCookie); err == nil && ck.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Admins.ClearRefreshToken(ctx, ck.Value); err != nil {
			log.Printf("admin logout: clear refresh token failed: %v", err)
		}
	}
	clearAdminCookies(c, h.Cfg.Env)
	return c.JSON(http.StatusOK, echo.Map{"msg": "logged out"})
}

// Profile returns the calling admin's record.
func (h *AdminHandler) Profile(c echo.Context) error {
	id := middleware.AdminID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := echo.Map{
		"id":     a.ID,
		"name":   a.Name,
		"phone":  a.Phone,
		"email":  a.Email,
		"gender": a.Gender,
		"role":   a.Role,
		"status": a.Status,
	}
	if a.LastLogin != nil {
		resp["last_login"] = a.LastLogin
	}
	return c.JSON(http.StatusOK, resp)
}

// ListAll returns every admin account.  Super-admin only (enforced by the
// route guard).
func (h *AdminHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admins, err := h.Admins.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminPart, 0, len(admins))
	for _, a := range admins {
		out = append(out, publicAdmin(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": out})
}

// UpdateStatus activates, deactivates or suspends an admin account.  A
// super admin cannot change its own status, so the system can never lock
// out its last active super admin through this endpoint.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid admin id"})
	}

	var req adminStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidAdminStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active, inactive or suspended"})
	}

	callerID := middleware.AdminID(c)
	if callerID == targetID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot change your own status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Admins.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Admins.UpdateStatus(ctx, targetID, req.Status, callerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "status updated"})
}

// UpdatePassword changes an admin password.  Self-service requires the
// current password; a super admin may reset another admin without it.
// Either way the stored refresh token is cleared, ending the session.
func (h *AdminHandler) UpdatePassword(c echo.Context) error {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid admin id"})
	}

	var req adminPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < utils.MinPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	callerID := middleware.AdminID(c)
	callerRole, _ := c.Get(middleware.CtxAdminRole).(string)
	self := callerID == targetID
	if !self && !model.RoleCan(callerRole, model.CapManageAdmins) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Admins.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if self {
		if req.CurrentPassword == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is required"})
		}
		if !utils.VerifyPassword(target.PasswordHash, req.CurrentPassword) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect password"})
		}
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Admins.UpdatePassword(ctx, targetID, hash, callerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "password updated"})
}
