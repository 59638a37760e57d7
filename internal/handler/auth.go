package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fishmapai/fishmap-server/internal/config"
	"github.com/fishmapai/fishmap-server/internal/email"
	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/queue"
	"github.com/fishmapai/fishmap-server/internal/repository"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// UserStore is the slice of the user repository the auth and profile
// handlers depend on.  Declared here so tests can swap in an in-memory
// implementation; *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, name, phone, email, gender, password, otpCode string, otpExpires time.Time, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByRefreshToken(ctx context.Context, token string) (model.User, error)
	SetRefreshToken(ctx context.Context, id uint64, token string) error
	ClearRefreshToken(ctx context.Context, token string) error
	SetOTP(ctx context.Context, id uint64, code string, expires time.Time) error
	MarkVerified(ctx context.Context, id uint64) error
	PhoneInUse(ctx context.Context, phone string, excludeID uint64) (bool, error)
	UpdateProfile(ctx context.Context, id uint64, name, phone, gender *string) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// Publisher emits a domain event to the broker.  Failures are the
// caller's choice to ignore.
type Publisher func(ctx context.Context, ev queue.UserVerifiedEvent) error

// AuthHandler bundles dependencies for user auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   UserStore
	Issuer  *utils.Issuer
	Mailer  email.Sender
	Limiter *email.Limiter
	Publish Publisher
}

func NewAuthHandler(cfg config.Config, users UserStore, issuer *utils.Issuer, mailer email.Sender, limiter *email.Limiter, publish Publisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Issuer: issuer, Mailer: mailer, Limiter: limiter, Publish: publish}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type verifyOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
type resendOTPReq struct {
	Email string `json:"email"`
}

type userPart struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

func publicUser(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsVerified: u.IsVerified}
}

// Register creates an unverified account and emails the verification code.
// The account stays unusable until VerifyOTP succeeds, so a failed OTP
// delivery fails the whole request rather than leaving a silently
// unreachable account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" || req.Email == "" || req.Gender == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	if req.Gender != "male" && req.Gender != "female" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gender must be male or female"})
	}
	if len(req.Password) < utils.MinPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate otp failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Phone, req.Email, req.Gender, req.Password, otp, utils.OTPExpiry(), h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrPhoneExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if !h.Limiter.CanSend(ctx) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification email"})
	}
	if err := h.Mailer.SendOTP(req.Email, req.Name, otp); err != nil {
		log.Printf("register: otp mail to %s failed: %v", req.Email, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification email"})
	}
	h.Limiter.Record(ctx, email.KindOTP)

	return c.JSON(http.StatusCreated, echo.Map{
		"msg": "registration successful, check your email for the verification code",
		"user": userPart{
			ID: uid, Name: req.Name, Email: req.Email, Role: "user", IsVerified: false,
		},
	})
}

// VerifyOTP checks the submitted code and, on success, doubles as the first
// login: the account is marked verified, a token pair is issued and the
// refresh token is persisted.  The check order is fixed: already-verified
// wins over mismatch, mismatch wins over expiry.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and otp are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "email not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch {
	case u.IsVerified:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
	case u.OTPCode == nil || *u.OTPCode != req.OTP:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect otp code"})
	case u.OTPExpiresAt == nil || time.Now().UTC().After(*u.OTPExpiresAt):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "otp code expired"})
	}

	if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	u.IsVerified = true

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	h.setUserCookies(c, access, refresh)

	// Welcome notification is best-effort; a broker outage must not fail
	// the verification.
	if h.Publish != nil {
		if err := h.Publish(ctx, queue.UserVerifiedEvent{
			UserID:     u.ID,
			Name:       u.Name,
			Email:      u.Email,
			VerifiedAt: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("verify-otp: publish user.verified failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"msg":         "email verified",
		"accessToken": access.Token,
		"user":        publicUser(u),
	})
}

// ResendOTP issues a fresh code with a fresh expiry.  The prior code is
// replaced, never extended.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req resendOTPReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "email not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.IsVerified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate otp failed"})
	}
	if err := h.Users.SetOTP(ctx, u.ID, otp, utils.OTPExpiry()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store otp failed"})
	}
	if !h.Limiter.CanSend(ctx) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resend verification email"})
	}
	if err := h.Mailer.SendOTP(u.Email, u.Name, otp); err != nil {
		log.Printf("resend-otp: mail to %s failed: %v", u.Email, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resend verification email"})
	}
	h.Limiter.Record(ctx, email.KindOTP)

	return c.JSON(http.StatusOK, echo.Map{"msg": "verification code resent"})
}

// Login exchanges credentials for a token pair.  An unverified user with
// correct credentials is verified as a side effect rather than rejected;
// the stored refresh token is overwritten, which silently ends any other
// active session for the account.
func (h *AuthHandler) Login(c echo.Context) error {
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

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "email not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect password"})
	}

	if !u.IsVerified {
		if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
		}
		u.IsVerified = true
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	h.setUserCookies(c, access, refresh)

	return c.JSON(http.StatusOK, echo.Map{
		"msg":         "login successful",
		"accessToken": access.Token,
		"user":        publicUser(u),
	})
}

// Refresh mints a new access token against the refresh cookie.  The lookup
// runs against the stored slot value first: a signature-valid token that is
// no longer on file (superseded by a newer login) is rejected before any
// cryptographic check.  The refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(userRefreshCookie)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token missing", "needLogin": true})
	}
	raw := ck.Value

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByRefreshToken(ctx, raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token", "needLogin": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if _, err := h.Issuer.VerifyUserRefresh(raw); err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "refresh token expired", "needLogin": true})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid refresh token", "needLogin": true})
	}

	access, err := h.Issuer.UserAccessToken(utils.UserClaims{UserID: u.ID, Name: u.Name, Email: u.Email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	setAuthCookie(c, h.Cfg.Env, userAccessCookie, access.Token, time.Until(access.Exp))

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": access.Token,
		"user":        publicUser(u),
	})
}

// Logout clears the stored refresh token if it matches the presented
// cookie, and clears both cookies no matter what: the client-side effect
// of logging out must not depend on backend availability.
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(userRefreshCookie); err == nil && ck.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Users.ClearRefreshToken(ctx, ck.Value); err != nil {
			log.Printf("logout: clear refresh token failed: %v", err)
		}
	}
	clearUserCookies(c, h.Cfg.Env)
	return c.JSON(http.StatusOK, echo.Map{"msg": "logged out"})
}

// issuePair mints an access+refresh pair and persists the refresh token in
// the single slot, replacing whatever was there.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (utils.SignedToken, utils.SignedToken, error) {
	claims := utils.UserClaims{UserID: u.ID, Name: u.Name, Email: u.Email}
	access, err := h.Issuer.UserAccessToken(claims)
	if err != nil {
		return utils.SignedToken{}, utils.SignedToken{}, err
	}
	refresh, err := h.Issuer.UserRefreshToken(claims)
	if err != nil {
		return utils.SignedToken{}, utils.SignedToken{}, err
	}
	if err := h.Users.SetRefreshToken(ctx, u.ID, refresh.Token); err != nil {
		return utils.SignedToken{}, utils.SignedToken{}, err
	}
	return access, refresh, nil
}

func (h *AuthHandler) setUserCookies(c echo.Context, access, refresh utils.SignedToken) {
	setAuthCookie(c, h.Cfg.Env, userAccessCookie, access.Token, time.Until(access.Exp))
	setAuthCookie(c, h.Cfg.Env, userRefreshCookie, refresh.Token, time.Until(refresh.Exp))
}
