package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/services"
)

const (
	imagesField = "images"
	// multipartMemory is how much of a multipart body is kept in memory; the
	// rest spills to temporary files.
	multipartMemory = 32 << 20
	// formOverhead covers the text fields and multipart framing.
	formOverhead = 1 << 20
)

// parseProjectForm reads the multipart project form. The caller must call the
// returned cleanup once the uploads have been consumed.
func parseProjectForm(w http.ResponseWriter, r *http.Request, policy services.UploadPolicy) (services.ProjectInput, []services.Upload, func(), error) {
	noop := func() {}
	limit := int64(policy.MaxFiles)*policy.MaxFileSize + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.ProjectInput{}, nil, noop, errs.NewMaxBodySizeExceededError(limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return services.ProjectInput{}, nil, noop, errs.NewBadRequestError("expected a multipart/form-data body")
		}
		return services.ProjectInput{}, nil, noop, errs.NewMalformedPayloadError("multipart", err)
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	in := services.ProjectInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}

	headers := r.MultipartForm.File[imagesField]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, uploadFromHeader(fh))
	}
	return in, uploads, cleanup, nil
}

func uploadFromHeader(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
