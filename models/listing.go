package models

import "time"

// PublicImage is the image shape exposed to site visitors.
type PublicImage struct {
	Filename string `json:"filename"`
	IsCover  bool   `json:"is_cover"`
}

// AdminImage carries the fields the admin panel needs to edit or delete an image.
type AdminImage struct {
	ID           uint   `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	IsCover      bool   `json:"is_cover"`
}

// ProjectListing is a project with its images in the requested projection.
type ProjectListing[I PublicImage | AdminImage] struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	Images      []I       `json:"images"`
}
