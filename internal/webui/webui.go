// Package webui embeds the browser page served at "/" by poet serve.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the embedded page and its assets.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embed path is fixed at compile time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
