package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fishmapai/fishmap-server/internal/model"
)

// CatchRepo persists fish-recognition history rows ('catch_records').
type CatchRepo struct{ DB *sql.DB }

func NewCatchRepo(db *sql.DB) *CatchRepo { return &CatchRepo{DB: db} }

const catchColumns = "id,user_id,fish_name,predicted_class,probability,habitat,consumption_safety,image,notes,created_at,updated_at"

// ClassCount is one row of the per-class statistics breakdown.
type ClassCount struct {
	Class string `json:"predicted_class"`
	Count int    `json:"count"`
}

// CatchStats aggregates a user's history for the statistics endpoint.
type CatchStats struct {
	Total   int          `json:"total_records"`
	Recent  int          `json:"recent_scans"`
	ByClass []ClassCount `json:"by_class"`
}

// Create inserts a history record owned by userID and returns its ID.
func (r *CatchRepo) Create(ctx context.Context, rec model.CatchRecord) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO catch_records (user_id, fish_name, predicted_class, probability, habitat, consumption_safety, image, notes) VALUES (?,?,?,?,?,?,?,?)",
		rec.UserID, rec.FishName, rec.PredictedClass, rec.Probability, rec.Habitat,
		rec.ConsumptionSafety, rec.Image, rec.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns one page of the user's records, newest first.
func (r *CatchRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.CatchRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+catchColumns+" FROM catch_records WHERE user_id=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatchRecord
	for rows.Next() {
		rec, err := scanCatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByUser returns how many records the user owns.
func (r *CatchRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM catch_records WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// GetByID fetches a single record.  Ownership is enforced here with
// ErrForbidden; handlers present it as 404 so record ids cannot be probed.
func (r *CatchRepo) GetByID(ctx context.Context, id, userID uint64) (model.CatchRecord, error) {
	rec, err := scanCatch(r.DB.QueryRowContext(ctx,
		"SELECT "+catchColumns+" FROM catch_records WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.CatchRecord{}, err
	}
	if rec.UserID != userID {
		return model.CatchRecord{}, ErrForbidden
	}
	return rec, nil
}

// Update applies the non-nil fields to a record the user owns.
func (r *CatchRepo) Update(ctx context.Context, id, userID uint64, fishName, habitat, safety, notes, image *string) error {
	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return err
	}
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("fish_name", fishName)
	add("habitat", habitat)
	add("consumption_safety", safety)
	add("notes", notes)
	add("image", image)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE catch_records SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes a record the user owns.
func (r *CatchRepo) Delete(ctx context.Context, id, userID uint64) error {
	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM catch_records WHERE id=?", id)
	return err
}

// Stats builds the per-user summary: total records, scans in the last 7
// days and a per-class count breakdown ordered by frequency.
func (r *CatchRepo) Stats(ctx context.Context, userID uint64) (CatchStats, error) {
	var s CatchStats
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM catch_records WHERE user_id=?", userID).Scan(&s.Total); err != nil {
		return s, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM catch_records WHERE user_id=? AND created_at >= NOW() - INTERVAL 7 DAY",
		userID).Scan(&s.Recent); err != nil {
		return s, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT COALESCE(predicted_class,''), COUNT(*) AS cnt FROM catch_records WHERE user_id=? GROUP BY predicted_class ORDER BY cnt DESC",
		userID)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc ClassCount
		if err := rows.Scan(&cc.Class, &cc.Count); err != nil {
			return s, err
		}
		s.ByClass = append(s.ByClass, cc)
	}
	return s, rows.Err()
}

func scanCatch(row rowScanner) (model.CatchRecord, error) {
	var (
		rec     model.CatchRecord
		class   sql.NullString
		prob    sql.NullFloat64
		habitat sql.NullString
		safety  sql.NullString
		image   sql.NullString
		notes   sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.FishName, &class, &prob, &habitat,
		&safety, &image, &notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.CatchRecord{}, err
	}
	if class.Valid {
		rec.PredictedClass = &class.String
	}
	if prob.Valid {
		rec.Probability = &prob.Float64
	}
	if habitat.Valid {
		rec.Habitat = &habitat.String
	}
	if safety.Valid {
		rec.ConsumptionSafety = &safety.String
	}
	if image.Valid {
		rec.Image = &image.String
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	return rec, nil
}
