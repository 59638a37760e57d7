package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fishmapai/fishmap-server/internal/model"
)

// GalleryRepo persists rows of the 'gallery_images' table.
type GalleryRepo struct{ DB *sql.DB }

func NewGalleryRepo(db *sql.DB) *GalleryRepo { return &GalleryRepo{DB: db} }

const galleryColumns = "id,name,image,description,created_at,updated_at"

// List returns all images newest first.  A non-empty search term filters by
// name or description substring.
func (r *GalleryRepo) List(ctx context.Context, search string) ([]model.GalleryImage, error) {
	query := "SELECT " + galleryColumns + " FROM gallery_images"
	args := []interface{}{}
	if search != "" {
		query += " WHERE name LIKE ? OR description LIKE ?"
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GalleryImage
	for rows.Next() {
		var g model.GalleryImage
		if err := rows.Scan(&g.ID, &g.Name, &g.Image, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID fetches one image.
func (r *GalleryRepo) GetByID(ctx context.Context, id uint64) (model.GalleryImage, error) {
	var g model.GalleryImage
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+galleryColumns+" FROM gallery_images WHERE id=? LIMIT 1", id).
		Scan(&g.ID, &g.Name, &g.Image, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// Create inserts an image and returns its ID.
func (r *GalleryRepo) Create(ctx context.Context, name, image, description string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO gallery_images (name, image, description) VALUES (?,?,?)",
		name, image, description)
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
func (r *GalleryRepo) Update(ctx context.Context, id uint64, name, image, description *string) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, *name)
	}
	if image != nil {
		sets = append(sets, "image=?")
		args = append(args, *image)
	}
	if description != nil {
		sets = append(sets, "description=?")
		args = append(args, *description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE gallery_images SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes an image.  sql.ErrNoRows is returned when nothing matched
// so handlers can answer 404.
func (r *GalleryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM gallery_images WHERE id=?", id)
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
