package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fishmapai/fishmap-server/internal/model"
)

// RecipeRepo persists rows of the 'recipes' table.
type RecipeRepo struct{ DB *sql.DB }

func NewRecipeRepo(db *sql.DB) *RecipeRepo { return &RecipeRepo{DB: db} }

const recipeColumns = "id,fish_name,title,image_url,ingredients,instructions,created_at,updated_at"

// ListAll returns every recipe newest first.
func (r *RecipeRepo) ListAll(ctx context.Context) ([]model.Recipe, error) {
	return r.list(ctx, "SELECT "+recipeColumns+" FROM recipes ORDER BY created_at DESC")
}

// ListByFishName returns recipes for one fish, matched case-insensitively.
func (r *RecipeRepo) ListByFishName(ctx context.Context, fishName string) ([]model.Recipe, error) {
	return r.list(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE LOWER(fish_name)=LOWER(?) ORDER BY created_at DESC",
		fishName)
}

// FishNames returns the distinct fish names that have at least one recipe.
func (r *RecipeRepo) FishNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT DISTINCT fish_name FROM recipes ORDER BY fish_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// GetByID fetches one recipe.
func (r *RecipeRepo) GetByID(ctx context.Context, id uint64) (model.Recipe, error) {
	return scanRecipe(r.DB.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes WHERE id=? LIMIT 1", id))
}

// Create inserts a recipe and returns its ID.
func (r *RecipeRepo) Create(ctx context.Context, rec model.Recipe) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO recipes (fish_name, title, image_url, ingredients, instructions) VALUES (?,?,?,?,?)",
		rec.FishName, rec.Title, rec.ImageURL, rec.Ingredients, rec.Instructions)
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
func (r *RecipeRepo) Update(ctx context.Context, id uint64, fishName, title, imageURL, ingredients, instructions *string) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("fish_name", fishName)
	add("title", title)
	add("image_url", imageURL)
	add("ingredients", ingredients)
	add("instructions", instructions)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE recipes SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes a recipe; sql.ErrNoRows when nothing matched.
func (r *RecipeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM recipes WHERE id=?", id)
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

func (r *RecipeRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Recipe, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecipe(row rowScanner) (model.Recipe, error) {
	var (
		rec      model.Recipe
		imageURL sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.FishName, &rec.Title, &imageURL,
		&rec.Ingredients, &rec.Instructions, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.Recipe{}, err
	}
	if imageURL.Valid {
		rec.ImageURL = &imageURL.String
	}
	return rec, nil
}
