package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// ProjectFields are the admin-editable columns of a project.
type ProjectFields struct {
	Title       string
	Description string
	Category    string
}

// projectImageRow is one row of projects LEFT JOIN project_images.
type projectImageRow struct {
	ID           uint
	Title        string
	Description  string
	Category     string
	CreatedAt    time.Time
	ImageID      *uint
	Filename     *string
	OriginalName *string
	IsCover      *bool
}

// FindByID returns a project by its ID, with its images.
func (r *ProjectRepo) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, fmt.Errorf("find project %d: %w", id, err)
	}
	return &project, nil
}

// Create inserts the project together with its images in a single transaction.
// Cover flags are taken as given.
func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(project).Error
	})
	if err != nil {
		return fmt.Errorf("create project %q: %w", project.Title, err)
	}
	return nil
}

// Update overwrites the editable fields, stamps updatedAt and appends newImages.
// An appended image is flagged cover only when it is the first of the batch and
// the project has no cover yet.
func (r *ProjectRepo) Update(ctx context.Context, id uint, fields ProjectFields, updatedAt time.Time, newImages []models.ProjectImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).Where("id = ?", id).Updates(map[string]any{
			"title":       fields.Title,
			"description": fields.Description,
			"category":    fields.Category,
			"updated_at":  updatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("update project %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("project")
		}

		if len(newImages) == 0 {
			return nil
		}

		var covers int64
		if err := tx.Model(&models.ProjectImage{}).
			Where("project_id = ? AND is_cover = ?", id, true).
			Count(&covers).Error; err != nil {
			return fmt.Errorf("count covers of project %d: %w", id, err)
		}

		for i := range newImages {
			newImages[i].ProjectID = id
			newImages[i].IsCover = covers == 0 && i == 0
		}
		if err := tx.Create(&newImages).Error; err != nil {
			return fmt.Errorf("append images to project %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the project and all of its image rows. It returns the stored
// filenames of the removed images so the caller can drop the files. A missing
// project is not an error.
func (r *ProjectRepo) Delete(ctx context.Context, id uint) ([]string, error) {
	var filenames []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectImage{}).
			Where("project_id = ?", id).
			Order("id ASC").
			Pluck("filename", &filenames).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete project %d: %w", id, err)
	}
	return filenames, nil
}

// ListPublic returns every project newest-first with filename and cover flag per image.
func (r *ProjectRepo) ListPublic(ctx context.Context) ([]models.ProjectListing[models.PublicImage], error) {
	rows, err := r.listRows(ctx)
	if err != nil {
		return nil, err
	}
	return buildListings(rows, func(row projectImageRow) models.PublicImage {
		return models.PublicImage{
			Filename: *row.Filename,
			IsCover:  row.IsCover != nil && *row.IsCover,
		}
	}), nil
}

// ListAdmin returns every project newest-first with full image metadata.
func (r *ProjectRepo) ListAdmin(ctx context.Context) ([]models.ProjectListing[models.AdminImage], error) {
	rows, err := r.listRows(ctx)
	if err != nil {
		return nil, err
	}
	return buildListings(rows, func(row projectImageRow) models.AdminImage {
		img := models.AdminImage{
			ID:       *row.ImageID,
			Filename: *row.Filename,
			IsCover:  row.IsCover != nil && *row.IsCover,
		}
		if row.OriginalName != nil {
			img.OriginalName = *row.OriginalName
		}
		return img
	}), nil
}

func (r *ProjectRepo) listRows(ctx context.Context) ([]projectImageRow, error) {
	var rows []projectImageRow
	err := r.db.WithContext(ctx).
		Table("projects AS p").
		Select("p.id, p.title, p.description, p.category, p.created_at, " +
			"pi.id AS image_id, pi.filename, pi.original_name, pi.is_cover").
		Joins("LEFT JOIN project_images AS pi ON pi.project_id = p.id").
		Order("p.created_at DESC, p.id DESC, pi.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

func buildListings[I models.PublicImage | models.AdminImage](rows []projectImageRow, toImage func(projectImageRow) I) []models.ProjectListing[I] {
	return groupByParent(rows,
		func(row projectImageRow) uint { return row.ID },
		func(row projectImageRow) models.ProjectListing[I] {
			return models.ProjectListing[I]{
				ID:          row.ID,
				Title:       row.Title,
				Description: row.Description,
				Category:    row.Category,
				CreatedAt:   row.CreatedAt,
				Images:      []I{},
			}
		},
		func(p *models.ProjectListing[I], row projectImageRow) {
			if row.ImageID == nil || row.Filename == nil {
				return
			}
			p.Images = append(p.Images, toImage(row))
		},
	)
}
