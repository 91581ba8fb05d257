package storage

import (
	"io/fs"
	"net/http"
	"path"
)

// noListingFS hides directories that have no index.html, so http.FileServer
// answers 404 instead of rendering a listing.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}

	index, err := n.fs.Open(path.Join(name, "index.html"))
	if err != nil {
		f.Close()
		return nil, fs.ErrNotExist
	}
	index.Close()
	return f, nil
}

// FileServer serves the files under dir without directory listings.
func FileServer(dir string) http.Handler {
	return http.FileServer(noListingFS{http.Dir(dir)})
}
