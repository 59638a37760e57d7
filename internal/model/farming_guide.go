package model

import "time"

// FarmingGuide describes how to farm a fish species, stored in the
// `farming_guides` table.
type FarmingGuide struct {
	ID           uint64    `json:"id"`
	FishName     string    `json:"fish_name"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Steps        string    `json:"steps"`
	ImageURL     *string   `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
