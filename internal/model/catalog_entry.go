package model

import "time"

// CatalogEntry is a community catalog submission, a row in the
// `catalog_entries` table.  Unlike catch records these are shared: every
// verified user sees the latest entries of everyone.
type CatalogEntry struct {
	ID                uint64    `json:"id"`
	UserID            uint64    `json:"user_id"`
	FishName          string    `json:"fish_name"`
	Probability       *float64  `json:"probability"`
	Habitat           *string   `json:"habitat"`
	ConsumptionSafety *string   `json:"consumption_safety"`
	Image             *string   `json:"image"`
	Location          *string   `json:"location"`
	FoundAt           *string   `json:"found_at"`
	Condition         *string   `json:"condition"`
	SafeToEat         bool      `json:"safe_to_eat"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CatalogEntryWithUser joins the submitting user's public identity onto an
// entry for feed responses.
type CatalogEntryWithUser struct {
	CatalogEntry
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
