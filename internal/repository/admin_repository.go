package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fishmapai/fishmap-server/internal/model"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

// AdminRepo persists rows of the 'admins' table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = "id,name,phone,email,gender,password_hash,role,status,refresh_token,last_login,created_by,updated_by,created_at,updated_at"

// Create inserts an immediately active admin and returns its ID.  createdBy
// is a nullable back-reference to the creating admin.
func (r *AdminRepo) Create(ctx context.Context, name, phone, email, gender, password, role string, createdBy *uint64, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (name, phone, email, gender, password_hash, role, status, created_by) VALUES (?,?,?,?,?,?,'active',?)",
		name, phone, email, gender, hash, role, createdBy)
	if err != nil {
		return 0, dupKeyError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an admin by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+adminColumns+" FROM admins WHERE email=? LIMIT 1", email)
}

// GetByID fetches an admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	return r.scanOne(ctx, "SELECT "+adminColumns+" FROM admins WHERE id=? LIMIT 1", id)
}

// GetByRefreshToken fetches the admin whose stored refresh token exactly
// equals the presented value.
func (r *AdminRepo) GetByRefreshToken(ctx context.Context, token string) (model.Admin, error) {
	return r.scanOne(ctx, "SELECT "+adminColumns+" FROM admins WHERE refresh_token=? LIMIT 1", token)
}

// SetRefreshToken overwrites the refresh-token slot and stamps last_login.
// Last writer wins on concurrent logins, same as for users.
func (r *AdminRepo) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET refresh_token=?, last_login=NOW() WHERE id=?", token, id)
	return err
}

// ClearRefreshToken nulls the slot only where it matches the presented value.
func (r *AdminRepo) ClearRefreshToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE admins SET refresh_token=NULL WHERE refresh_token=?", token)
	return err
}

// UpdateStatus sets the account status and records who changed it.  A status
// other than active also clears the refresh-token slot so a suspended admin
// cannot keep refreshing an old session.
func (r *AdminRepo) UpdateStatus(ctx context.Context, id uint64, status string, updatedBy uint64) error {
	if status == model.AdminActive {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE admins SET status=?, updated_by=? WHERE id=?", status, updatedBy, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET status=?, updated_by=?, refresh_token=NULL WHERE id=?", status, updatedBy, id)
	return err
}

// UpdatePassword stores a new hash, clears the refresh-token slot and
// records who changed it.
func (r *AdminRepo) UpdatePassword(ctx context.Context, id uint64, hash string, updatedBy uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET password_hash=?, refresh_token=NULL, updated_by=? WHERE id=?", hash, updatedBy, id)
	return err
}

// ListAll returns every admin, newest first.
func (r *AdminRepo) ListAll(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+adminColumns+" FROM admins ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *AdminRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.Admin, error) {
	return scanAdmin(r.DB.QueryRowContext(ctx, query, args...))
}

func scanAdmin(row rowScanner) (model.Admin, error) {
	var (
		a         model.Admin
		refresh   sql.NullString
		lastLogin sql.NullTime
		createdBy sql.NullInt64
		updatedBy sql.NullInt64
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Phone, &a.Email, &a.Gender, &a.PasswordHash, &a.Role,
		&a.Status, &refresh, &lastLogin, &createdBy, &updatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Admin{}, err
	}
	if refresh.Valid {
		a.RefreshToken = &refresh.String
	}
	if lastLogin.Valid {
		a.LastLogin = &lastLogin.Time
	}
	if createdBy.Valid {
		v := uint64(createdBy.Int64)
		a.CreatedBy = &v
	}
	if updatedBy.Valid {
		v := uint64(updatedBy.Int64)
		a.UpdatedBy = &v
	}
	return a, nil
}
