// Package static serves the browser frontend of the activity registry.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

// IndexPath is where the root path redirects to
const IndexPath = "/static/"

//go:embed assets
var assets embed.FS

// Handler serves the embedded assets. It expects to be mounted at /static.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return http.StripPrefix("/static", http.FileServerFS(sub))
}

// RedirectToIndex sends browsers at / to the frontend
func RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}
