package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Sentinel verification errors.  Callers must distinguish the two: an
// expired-but-authentic token means "ask the client to refresh", anything
// else means "reject outright".
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// SignedToken bundles a serialized JWT with its expiration time so that
// handlers can mirror the expiry into cookie max-ages and response bodies.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// UserClaims is the identity embedded in user tokens.
type UserClaims struct {
	UserID uint64
	Name   string
	Email  string
}

// AdminClaims is the identity embedded in admin tokens.  Admin tokens
// additionally carry the role so the role guard can run without a DB hit.
type AdminClaims struct {
	AdminID uint64
	Name    string
	Email   string
	Role    string
}

// Issuer creates and verifies HS256 tokens.  Each of the four token kinds
// (user/admin x access/refresh) is signed with its own secret, so a token of
// one kind never verifies as another.  Refresh tokens are JWTs as well: the
// session layer stores the serialized value on the principal row and matches
// it byte-for-byte on refresh, with the signature check layered on top.
type Issuer struct {
	UserAccessSecret   string
	UserRefreshSecret  string
	AdminAccessSecret  string
	AdminRefreshSecret string

	UserAccessTTL  time.Duration // short-lived (15m in production)
	AdminAccessTTL time.Duration // 8h; the asymmetry with user tokens is inherited behavior
	RefreshTTL     time.Duration // 7d for both principal types
}

// UserAccessToken signs a short-lived access token for a user.
func (i *Issuer) UserAccessToken(c UserClaims) (SignedToken, error) {
	return sign(i.UserAccessSecret, userMapClaims(c), i.UserAccessTTL)
}

// UserRefreshToken signs a long-lived refresh token for a user.
func (i *Issuer) UserRefreshToken(c UserClaims) (SignedToken, error) {
	return sign(i.UserRefreshSecret, userMapClaims(c), i.RefreshTTL)
}

// AdminAccessToken signs an access token for an admin.
func (i *Issuer) AdminAccessToken(c AdminClaims) (SignedToken, error) {
	return sign(i.AdminAccessSecret, adminMapClaims(c), i.AdminAccessTTL)
}

// AdminRefreshToken signs a refresh token for an admin.
func (i *Issuer) AdminRefreshToken(c AdminClaims) (SignedToken, error) {
	return sign(i.AdminRefreshSecret, adminMapClaims(c), i.RefreshTTL)
}

// VerifyUserAccess validates a user access token and returns its claims.
func (i *Issuer) VerifyUserAccess(token string) (UserClaims, error) {
	return verifyUser(i.UserAccessSecret, token)
}

// VerifyUserRefresh validates a user refresh token and returns its claims.
func (i *Issuer) VerifyUserRefresh(token string) (UserClaims, error) {
	return verifyUser(i.UserRefreshSecret, token)
}

// VerifyAdminAccess validates an admin access token and returns its claims.
func (i *Issuer) VerifyAdminAccess(token string) (AdminClaims, error) {
	return verifyAdmin(i.AdminAccessSecret, token)
}

// VerifyAdminRefresh validates an admin refresh token and returns its claims.
func (i *Issuer) VerifyAdminRefresh(token string) (AdminClaims, error) {
	return verifyAdmin(i.AdminRefreshSecret, token)
}

func userMapClaims(c UserClaims) jwt.MapClaims {
	return jwt.MapClaims{
		"userId": c.UserID,
		"name":   c.Name,
		"email":  c.Email,
	}
}

func adminMapClaims(c AdminClaims) jwt.MapClaims {
	return jwt.MapClaims{
		"adminId": c.AdminID,
		"name":    c.Name,
		"email":   c.Email,
		"role":    c.Role,
	}
}

// sign builds an HS256 token with the given identity claims plus exp/iat.
func sign(secret string, claims jwt.MapClaims, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims["exp"] = exp.Unix()
	claims["iat"] = now.Unix()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// parse validates signature and expiry and returns the raw claims.  A valid
// signature past its expiry yields ErrTokenExpired; every other failure
// (tampered, wrong secret, malformed, wrong algorithm) yields ErrTokenInvalid.
func parse(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func verifyUser(secret, raw string) (UserClaims, error) {
	claims, err := parse(secret, raw)
	if err != nil {
		return UserClaims{}, err
	}
	id, ok := claimUint64(claims, "userId")
	if !ok {
		return UserClaims{}, ErrTokenInvalid
	}
	return UserClaims{
		UserID: id,
		Name:   claimString(claims, "name"),
		Email:  claimString(claims, "email"),
	}, nil
}

func verifyAdmin(secret, raw string) (AdminClaims, error) {
	claims, err := parse(secret, raw)
	if err != nil {
		return AdminClaims{}, err
	}
	id, ok := claimUint64(claims, "adminId")
	if !ok {
		return AdminClaims{}, ErrTokenInvalid
	}
	return AdminClaims{
		AdminID: id,
		Name:    claimString(claims, "name"),
		Email:   claimString(claims, "email"),
		Role:    claimString(claims, "role"),
	}, nil
}

// claimUint64 reads a numeric claim.  JSON decoding yields float64 for
// numbers, so a conversion is always needed.
func claimUint64(claims jwt.MapClaims, key string) (uint64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

func claimString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
