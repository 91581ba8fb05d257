package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/database"
	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
	"github.com/ediltrentini/site-backend/storage"
)

// ProjectStore is the persistence the catalog needs for projects.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, id uint, fields database.ProjectFields, updatedAt time.Time, newImages []models.ProjectImage) error
	Delete(ctx context.Context, id uint) ([]string, error)
	ListPublic(ctx context.Context) ([]models.ProjectListing[models.PublicImage], error)
	ListAdmin(ctx context.Context) ([]models.ProjectListing[models.AdminImage], error)
}

// ImageRecordStore is the persistence the catalog needs for single images.
type ImageRecordStore interface {
	Delete(ctx context.Context, id uint) (*models.ProjectImage, error)
}

// ProjectInput carries the editable text fields of a project.
type ProjectInput struct {
	Title       string
	Description string
	Category    string
}

func (in ProjectInput) fields() database.ProjectFields {
	return database.ProjectFields{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
	}
}

// CatalogService owns project and image lifecycle: rows and stored files move
// together. All mutations are serialized on mu so a file write and its row
// change are never interleaved with another request's.
type CatalogService struct {
	mu       sync.Mutex
	projects ProjectStore
	images   ImageRecordStore
	files    storage.ImageStore
	policy   UploadPolicy
	logger   zerolog.Logger
	now      func() time.Time
}

func NewCatalogService(projects ProjectStore, images ImageRecordStore, files storage.ImageStore, policy UploadPolicy) *CatalogService {
	return &CatalogService{
		projects: projects,
		images:   images,
		files:    files,
		policy:   policy,
		logger:   log.With().Str("service", "catalog").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the upload limits the catalog enforces.
func (s *CatalogService) Policy() UploadPolicy {
	return s.policy
}

// ListPublic returns the gallery shown to visitors.
func (s *CatalogService) ListPublic(ctx context.Context) ([]models.ProjectListing[models.PublicImage], error) {
	projects, err := s.projects.ListPublic(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// ListAdmin returns every project with full image metadata for the edit forms.
func (s *CatalogService) ListAdmin(ctx context.Context) ([]models.ProjectListing[models.AdminImage], error) {
	projects, err := s.projects.ListAdmin(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// CreateProject stores the accepted uploads and inserts the project. The first
// stored image is the cover.
func (s *CatalogService) CreateProject(ctx context.Context, in ProjectInput, uploads []Upload) (uint, error) {
	fields := in.fields()
	if fields.Title == "" {
		return 0, errs.NewMissingRequiredFieldError("title")
	}
	accepted, err := s.filter(uploads)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	images, err := s.storeUploads(ctx, accepted, now)
	if err != nil {
		return 0, err
	}
	for i := range images {
		images[i].IsCover = i == 0
	}

	project := &models.Project{
		Title:       fields.Title,
		Description: fields.Description,
		Category:    fields.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
		Images:      images,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		s.discardFiles(ctx, images)
		return 0, errs.NewDatabaseError("create", "project", err)
	}

	s.logger.Info().Uint("projectID", project.ID).Int("images", len(images)).Msg("project created")
	return project.ID, nil
}

// UpdateProject replaces the text fields and appends any accepted uploads.
func (s *CatalogService) UpdateProject(ctx context.Context, id uint, in ProjectInput, uploads []Upload) error {
	fields := in.fields()
	if fields.Title == "" {
		return errs.NewMissingRequiredFieldError("title")
	}
	accepted, err := s.filter(uploads)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	images, err := s.storeUploads(ctx, accepted, now)
	if err != nil {
		return err
	}

	if err := s.projects.Update(ctx, id, fields, now, images); err != nil {
		s.discardFiles(ctx, images)
		return errs.NewDatabaseError("update", "project", err)
	}

	s.logger.Info().Uint("projectID", id).Int("newImages", len(images)).Msg("project updated")
	return nil
}

// DeleteProject removes the project, its image rows and their files. Deleting
// an absent project succeeds.
func (s *CatalogService) DeleteProject(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filenames, err := s.projects.Delete(ctx, id)
	if err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}
	for _, name := range filenames {
		s.removeFile(ctx, name)
	}

	s.logger.Info().Uint("projectID", id).Int("images", len(filenames)).Msg("project deleted")
	return nil
}

// DeleteImage removes one image row and its file. Deleting an absent image succeeds.
func (s *CatalogService) DeleteImage(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	image, err := s.images.Delete(ctx, id)
	if err != nil {
		return errs.NewDatabaseError("delete", "image", err)
	}
	if image == nil {
		s.logger.Debug().Uint("imageID", id).Msg("image already gone")
		return nil
	}
	s.removeFile(ctx, image.Filename)

	s.logger.Info().Uint("imageID", id).Uint("projectID", image.ProjectID).Msg("image deleted")
	return nil
}

func (s *CatalogService) filter(uploads []Upload) ([]Upload, error) {
	accepted, dropped, err := s.policy.Filter(uploads)
	if err != nil {
		return nil, err
	}
	for _, u := range dropped {
		s.logger.Warn().
			Str("originalName", u.OriginalName).
			Str("contentType", u.ContentType).
			Int64("size", u.Size).
			Msg("dropping upload that is not an accepted image")
	}
	return accepted, nil
}

// storeUploads writes each upload under a generated name. On failure every file
// written so far is removed again.
func (s *CatalogService) storeUploads(ctx context.Context, uploads []Upload, now time.Time) ([]models.ProjectImage, error) {
	images := make([]models.ProjectImage, 0, len(uploads))
	for _, u := range uploads {
		name := storedFilename(u.OriginalName, now)
		if err := s.storeOne(ctx, name, u); err != nil {
			s.discardFiles(ctx, images)
			return nil, errs.NewFileStorageError("store image", err)
		}
		images = append(images, models.ProjectImage{
			Filename:     name,
			OriginalName: u.OriginalName,
		})
	}
	return images, nil
}

func (s *CatalogService) storeOne(ctx context.Context, name string, u Upload) error {
	body, err := u.Open()
	if err != nil {
		return err
	}
	defer body.Close()
	return s.files.Save(ctx, name, body, u.Size, u.ContentType)
}

func (s *CatalogService) discardFiles(ctx context.Context, images []models.ProjectImage) {
	for _, img := range images {
		s.removeFile(ctx, img.Filename)
	}
}

// removeFile deletes a stored file; the row is already gone, so failures are only logged.
func (s *CatalogService) removeFile(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil {
		s.logger.Error().Err(err).Str("filename", name).Msg("failed to remove stored image")
	}
}
