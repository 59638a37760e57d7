package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fishmapai/fishmap-server/internal/model"
)

// FarmingRepo persists rows of the 'farming_guides' table.
type FarmingRepo struct{ DB *sql.DB }

func NewFarmingRepo(db *sql.DB) *FarmingRepo { return &FarmingRepo{DB: db} }

const farmingColumns = "id,fish_name,description,requirements,steps,image_url,created_at,updated_at"

// ListAll returns every guide ordered by fish name.
func (r *FarmingRepo) ListAll(ctx context.Context) ([]model.FarmingGuide, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+farmingColumns+" FROM farming_guides ORDER BY fish_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FarmingGuide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID fetches one guide.
func (r *FarmingRepo) GetByID(ctx context.Context, id uint64) (model.FarmingGuide, error) {
	return scanGuide(r.DB.QueryRowContext(ctx,
		"SELECT "+farmingColumns+" FROM farming_guides WHERE id=? LIMIT 1", id))
}

// Create inserts a guide and returns its ID.
func (r *FarmingRepo) Create(ctx context.Context, g model.FarmingGuide) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO farming_guides (fish_name, description, requirements, steps, image_url) VALUES (?,?,?,?,?)",
		g.FishName, g.Description, g.Requirements, g.Steps, g.ImageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update applies the non-nil fields.
func (r *FarmingRepo) Update(ctx context.Context, id uint64, fishName, description, requirements, steps, imageURL *string) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("fish_name", fishName)
	add("description", description)
	add("requirements", requirements)
	add("steps", steps)
	add("image_url", imageURL)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE farming_guides SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes a guide; sql.ErrNoRows when nothing matched.
func (r *FarmingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM farming_guides WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanGuide(row rowScanner) (model.FarmingGuide, error) {
	var (
		g        model.FarmingGuide
		imageURL sql.NullString
	)
	err := row.Scan(&g.ID, &g.FishName, &g.Description, &g.Requirements, &g.Steps,
		&imageURL, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.FarmingGuide{}, err
	}
	if imageURL.Valid {
		g.ImageURL = &imageURL.String
	}
	return g, nil
}
