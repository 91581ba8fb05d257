// Package storage keeps the bytes of uploaded project images. Rows in the
// database only reference files by their generated name.
package storage

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/ediltrentini/site-backend/errs"
)

// ImageStore saves and removes image files by generated name.
type ImageStore interface {
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	// Delete removes the named file. A missing file is not an error.
	Delete(ctx context.Context, name string) error
	// Handler serves stored files; it expects the request path to be the bare file name.
	Handler() http.Handler
}

// cleanName rejects anything that is not a plain file name.
func cleanName(name string) (string, error) {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errs.NewInvalidFieldError("filename", "must be a plain file name")
	}
	return name, nil
}
