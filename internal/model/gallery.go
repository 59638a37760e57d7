package model

import "time"

// GalleryImage is a row in the `gallery_images` table.  Image stores either
// a base64 payload or a URL path; the column is LONGTEXT to fit encoded
// images up to 16MB.
type GalleryImage struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
