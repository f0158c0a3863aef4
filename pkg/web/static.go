package web

import (
	"io/fs"
	"net/http"
	"strings"
)

// DistServer serves the files under subdir of fsys at urlPrefix. Directory
// paths answer 404 rather than a listing.
func DistServer(fsys fs.FS, subdir, urlPrefix string) http.Handler {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("web: static subdirectory " + subdir + ": " + err.Error())
	}

	files := http.FileServerFS(sub)
	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}))
}
