package services

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ediltrentini/site-backend/errs"
)

const (
	DefaultMaxFiles    = 10
	DefaultMaxFileSize = 10 << 20
)

// Upload is one file received from the admin panel, not yet stored.
type Upload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// UploadPolicy decides which uploads are accepted.
type UploadPolicy struct {
	MaxFiles    int
	MaxFileSize int64
	// AllowedTypes are matched against both the file extension and the declared content type.
	AllowedTypes []string
}

// DefaultUploadPolicy accepts up to ten common web image formats of at most 10 MB.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxFiles:     DefaultMaxFiles,
		MaxFileSize:  DefaultMaxFileSize,
		AllowedTypes: []string{"jpeg", "jpg", "png", "gif", "webp"},
	}
}

// Filter returns the acceptable uploads in their original order. Files with the
// wrong type or size are dropped; only exceeding the file count is an error.
func (p UploadPolicy) Filter(uploads []Upload) ([]Upload, []Upload, error) {
	if p.MaxFiles > 0 && len(uploads) > p.MaxFiles {
		return nil, nil, errs.NewTooManyFilesError("images", p.MaxFiles)
	}

	accepted := make([]Upload, 0, len(uploads))
	var dropped []Upload
	for _, u := range uploads {
		if p.accepts(u) {
			accepted = append(accepted, u)
		} else {
			dropped = append(dropped, u)
		}
	}
	return accepted, dropped, nil
}

func (p UploadPolicy) accepts(u Upload) bool {
	if u.Open == nil || u.Size <= 0 {
		return false
	}
	if p.MaxFileSize > 0 && u.Size > p.MaxFileSize {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.OriginalName)), ".")
	return p.matches(ext, true) && p.matches(strings.ToLower(u.ContentType), false)
}

// matches reports whether s names one of the allowed types: exactly for an
// extension, as a substring for a content type such as "image/jpeg".
func (p UploadPolicy) matches(s string, exact bool) bool {
	if s == "" {
		return false
	}
	for _, t := range p.AllowedTypes {
		if exact && s == t {
			return true
		}
		if !exact && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// storedFilename generates a collision-free name that keeps only the
// extension of the untrusted original name.
func storedFilename(originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
}
