package views

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*.js
var staticFS embed.FS

// Static serves the embedded scripts under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
