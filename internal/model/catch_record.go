package model

import "time"

// CatchRecord is one recognition result saved to a user's history, a row in
// the `catch_records` table.  PredictedClass and Probability come from the
// classifier; the rest is user-entered.  Records are private to their owner.
type CatchRecord struct {
	ID                uint64    `json:"id"`
	UserID            uint64    `json:"user_id"`
	FishName          string    `json:"fish_name"`
	PredictedClass    *string   `json:"predicted_class"`
	Probability       *float64  `json:"probability"`
	Habitat           *string   `json:"habitat"`
	ConsumptionSafety *string   `json:"consumption_safety"`
	Image             *string   `json:"image"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
