package models

import "time"

// Project is a portfolio entry shown in the public gallery.
type Project struct {
	ID          uint           `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title       string         `json:"title" db:"title" gorm:"type:text;not null"`
	Description string         `json:"description" db:"description" gorm:"type:text;not null"`
	Category    string         `json:"category" db:"category" gorm:"type:text;not null"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at" gorm:"not null;index:idx_projects_created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at" gorm:"not null"`
	Images      []ProjectImage `json:"images,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// ProjectImage is an uploaded picture owned by exactly one project.
// Filename is the generated storage key; OriginalName is whatever the uploader sent.
type ProjectImage struct {
	ID           uint   `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID    uint   `json:"project_id" db:"project_id" gorm:"not null;index:idx_project_images_project_id"`
	Filename     string `json:"filename" db:"filename" gorm:"type:text;not null;uniqueIndex:idx_project_images_filename"`
	OriginalName string `json:"original_name" db:"original_name" gorm:"type:text"`
	IsCover      bool   `json:"is_cover" db:"is_cover" gorm:"not null"`
}
