package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/services"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	catalog   *services.CatalogService
}

func newProjectHandler(catalog *services.CatalogService) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		catalog:   catalog,
	}
}

// listPublicProjects retrieves the gallery
// @Summary List projects
// @Description Retrieves every project newest first with its image file names and cover flags
// @Tags Projects
// @Produce json
// @Success 200 {array} models.ProjectListing[models.PublicImage]
// @Failure 500 {object} ErrorResponse
// @Router /api/projects [get]
func (h projectHandler) listPublicProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.catalog.ListPublic(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// listAdminProjects retrieves every project with full image details
// @Summary List projects (admin)
// @Tags Admin
// @Produce json
// @Success 200 {array} models.ProjectListing[models.AdminImage]
// @Failure 401 {object} ErrorResponse
// @Router /admin/api/projects [get]
func (h projectHandler) listAdminProjects() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ services.Session) {
		projects, err := h.catalog.ListAdmin(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// createProject creates a project from a multipart form
// @Summary Create project
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param category formData string false "Category"
// @Param images formData file false "Up to ten images; the first becomes the cover"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/api/projects [post]
func (h projectHandler) createProject() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, session services.Session) {
		in, uploads, cleanup, err := parseProjectForm(w, r, h.catalog.Policy())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer cleanup()

		id, err := h.catalog.CreateProject(r.Context(), in, uploads)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Uint("projectID", id).Str("by", session.Username).Msg("project created")
		h.responder.WriteJSON(w, SuccessResponse{Success: true, ID: id})
	}
}

// updateProject replaces a project's text fields and appends new images
// @Summary Update project
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/api/projects/{id} [put]
func (h projectHandler) updateProject() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, session services.Session) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		in, uploads, cleanup, err := parseProjectForm(w, r, h.catalog.Policy())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer cleanup()

		if err := h.catalog.UpdateProject(r.Context(), id, in, uploads); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Uint("projectID", id).Str("by", session.Username).Msg("project updated")
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// deleteProject removes a project with all its images
// @Summary Delete project
// @Tags Admin
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} SuccessResponse
// @Router /admin/api/projects/{id} [delete]
func (h projectHandler) deleteProject() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, session services.Session) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.catalog.DeleteProject(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Uint("projectID", id).Str("by", session.Username).Msg("project deleted")
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// deleteImage removes a single image
// @Summary Delete image
// @Tags Admin
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} SuccessResponse
// @Router /admin/api/images/{id} [delete]
func (h projectHandler) deleteImage() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, session services.Session) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.catalog.DeleteImage(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Uint("imageID", id).Str("by", session.Username).Msg("image deleted")
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

func pathID(r *http.Request, param string) (uint, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, errs.NewMissingRequiredFieldError(param)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewInvalidFieldError(param, "must be a positive integer")
	}
	return uint(id), nil
}
