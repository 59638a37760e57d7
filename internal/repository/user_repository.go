package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// UserRepo persists rows of the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,phone,email,gender,password_hash,role,otp_code,otp_expires,is_verified,email_verified_at,refresh_token,created_at,updated_at"

// Create inserts an unverified user with a pending OTP and returns its ID.
// The password is hashed here so callers never handle the hash directly.
func (r *UserRepo) Create(ctx context.Context, name, phone, email, gender, password, otpCode string, otpExpires time.Time, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, phone, email, gender, password_hash, role, otp_code, otp_expires, is_verified) VALUES (?,?,?,?,?,'user',?,?,0)",
		name, phone, email, gender, hash, otpCode, otpExpires)
	if err != nil {
		return 0, dupKeyError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByRefreshToken fetches the user whose stored refresh token exactly
// equals the presented value.  The stored value, not signature validity,
// is authoritative for the session lookup.
func (r *UserRepo) GetByRefreshToken(ctx context.Context, token string) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE refresh_token=? LIMIT 1", token)
}

// SetRefreshToken overwrites the single refresh-token slot.  Concurrent
// logins race here and the last writer wins; that is the accepted policy,
// so no optimistic locking is applied.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET refresh_token=? WHERE id=?", token, id)
	return err
}

// ClearRefreshToken nulls the slot only where it still holds the presented
// value, so a logout with a stale cookie cannot kill a newer session.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET refresh_token=NULL WHERE refresh_token=?", token)
	return err
}

// SetOTP stores a fresh verification code and expiry, replacing any prior
// one.  Resend never extends the old code.
func (r *UserRepo) SetOTP(ctx context.Context, id uint64, code string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET otp_code=?, otp_expires=? WHERE id=?", code, expires, id)
	return err
}

// MarkVerified flips the verification flag, stamps email_verified_at and
// clears both OTP columns in one statement.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=1, email_verified_at=NOW(), otp_code=NULL, otp_expires=NULL WHERE id=?", id)
	return err
}

// PhoneInUse reports whether another user already holds the phone number.
func (r *UserRepo) PhoneInUse(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE phone=? AND id<>?", phone, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateProfile applies the non-nil fields.  Callers validate phone
// uniqueness beforehand; the unique index is the backstop.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, phone, gender *string) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, *name)
	}
	if phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *phone)
	}
	if gender != nil {
		sets = append(sets, "gender=?")
		args = append(args, *gender)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return dupKeyError(err)
}

// UpdatePassword stores a new hash and clears the refresh-token slot in the
// same statement, forcing re-login on every device.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, refresh_token=NULL WHERE id=?", hash, id)
	return err
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.User, error) {
	var (
		u          model.User
		otpCode    sql.NullString
		otpExpires sql.NullTime
		verifiedAt sql.NullTime
		refresh    sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.Gender, &u.PasswordHash, &u.Role,
		&otpCode, &otpExpires, &u.IsVerified, &verifiedAt, &refresh,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if otpCode.Valid {
		u.OTPCode = &otpCode.String
	}
	if otpExpires.Valid {
		u.OTPExpiresAt = &otpExpires.Time
	}
	if verifiedAt.Valid {
		u.EmailVerifiedAt = &verifiedAt.Time
	}
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return u, nil
}

// dupKeyError maps MySQL duplicate-key failures (error 1062) onto the
// sentinel for the violated column.
func dupKeyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "phone") {
		return ErrPhoneExists
	}
	return ErrEmailExists
}
