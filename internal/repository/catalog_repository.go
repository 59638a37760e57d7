package repository

import (
	"context"
	"database/sql"

	"github.com/fishmapai/fishmap-server/internal/model"
)

// CatalogRepo persists contributor-submitted fish records
// ('catalog_entries').
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

const catalogJoinColumns = "e.id, e.user_id, e.fish_name, e.probability, e.habitat, e.consumption_safety, e.image, e.location, e.found_at, e.`condition`, e.safe_to_eat, e.notes, e.created_at, e.updated_at, u.name, u.email"

// Create inserts a catalog entry and returns its ID.
func (r *CatalogRepo) Create(ctx context.Context, e model.CatalogEntry) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO catalog_entries (user_id, fish_name, probability, habitat, consumption_safety, image, location, found_at, `condition`, safe_to_eat, notes) VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		e.UserID, e.FishName, e.Probability, e.Habitat, e.ConsumptionSafety,
		e.Image, e.Location, e.FoundAt, e.Condition, e.SafeToEat, e.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns an entry joined with its submitter.
func (r *CatalogRepo) GetByID(ctx context.Context, id uint64) (model.CatalogEntryWithUser, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+catalogJoinColumns+" FROM catalog_entries e JOIN users u ON u.id = e.user_id WHERE e.id=?", id)
	return scanCatalogEntry(row)
}

// ListLatest returns the newest entries joined with the submitter.  When
// userID is non-zero the result is restricted to that contributor.
func (r *CatalogRepo) ListLatest(ctx context.Context, userID uint64, limit int) ([]model.CatalogEntryWithUser, error) {
	query := "SELECT " + catalogJoinColumns + " FROM catalog_entries e JOIN users u ON u.id = e.user_id"
	args := []interface{}{}
	if userID != 0 {
		query += " WHERE e.user_id=?"
		args = append(args, userID)
	}
	query += " ORDER BY e.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogEntryWithUser
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanCatalogEntry(row rowScanner) (model.CatalogEntryWithUser, error) {
	var (
		e       model.CatalogEntryWithUser
		prob    sql.NullFloat64
		habitat sql.NullString
		safety  sql.NullString
		image   sql.NullString
		loc     sql.NullString
		found   sql.NullString
		cond    sql.NullString
		notes   sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.FishName, &prob, &habitat, &safety,
		&image, &loc, &found, &cond, &e.SafeToEat, &notes,
		&e.CreatedAt, &e.UpdatedAt, &e.UserName, &e.UserEmail)
	if err != nil {
		return model.CatalogEntryWithUser{}, err
	}
	if prob.Valid {
		e.Probability = &prob.Float64
	}
	if habitat.Valid {
		e.Habitat = &habitat.String
	}
	if safety.Valid {
		e.ConsumptionSafety = &safety.String
	}
	if image.Valid {
		e.Image = &image.String
	}
	if loc.Valid {
		e.Location = &loc.String
	}
	if found.Valid {
		e.FoundAt = &found.String
	}
	if cond.Valid {
		e.Condition = &cond.String
	}
	if notes.Valid {
		e.Notes = &notes.String
	}
	return e, nil
}
