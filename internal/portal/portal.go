package portal

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static/*
var content embed.FS

// Handler returns an http.Handler that serves the embedded portal page.
//
// Unknown paths fall back to index.html so the single page handles its
// own views. Panics if the embedded assets cannot be loaded (build
// error).
func Handler() http.Handler {
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		panic(fmt.Sprintf("portal: failed to load embedded assets: %v", err))
	}
	fileSystem := http.FS(staticFS)
	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The page is mutable across firmware updates; don't let
		// browsers pin a stale copy.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		upath := path.Clean(r.URL.Path)
		if upath == "." {
			upath = "/"
		}
		if upath == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}

		f, err := fileSystem.Open(upath[1:])
		if err != nil {
			// Fallback: serve index.html with 200.
			r.URL.Path = "/"
			fileServer.ServeHTTP(w, r)
			return
		}
		f.Close()

		fileServer.ServeHTTP(w, r)
	})
}
