package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ediltrentini/site-backend/models"
)

type ProjectImageRepo struct {
	db *gorm.DB
}

func NewProjectImageRepo(db *gorm.DB) *ProjectImageRepo {
	return &ProjectImageRepo{db}
}

// Add inserts a single image row.
func (r *ProjectImageRepo) Add(ctx context.Context, image *models.ProjectImage) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("add image to project %d: %w", image.ProjectID, err)
	}
	return nil
}

// FindByProject returns the images of a project in upload order.
func (r *ProjectImageRepo) FindByProject(ctx context.Context, projectID uint) ([]models.ProjectImage, error) {
	var images []models.ProjectImage
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("find images of project %d: %w", projectID, err)
	}
	return images, nil
}

// Delete removes one image row and returns it. It returns nil, nil when no
// such image exists.
func (r *ProjectImageRepo) Delete(ctx context.Context, id uint) (*models.ProjectImage, error) {
	var image models.ProjectImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&image, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProjectImage{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete image %d: %w", id, err)
	}
	return &image, nil
}
