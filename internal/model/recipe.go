package model

import "time"

// Recipe is a fish recipe row in the `recipes` table.
type Recipe struct {
	ID           uint64    `json:"id"`
	FishName     string    `json:"fish_name"`
	Title        string    `json:"title"`
	ImageURL     *string   `json:"image_url"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
