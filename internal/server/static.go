package server

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// spaHandler serves built frontend assets from a directory and falls back to
// index.html for client-side routes.
type spaHandler struct {
	root string
	fs   http.Handler
	log  zerolog.Logger
}

func newSPAHandler(root string, log zerolog.Logger) *spaHandler {
	return &spaHandler{
		root: root,
		fs:   http.FileServer(http.Dir(root)),
		log:  log.With().Str("component", "static").Logger(),
	}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(clean, "/api/") || clean == "/api" {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(clean)))
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.log.Warn().Err(err).Str("path", clean).Msg("Failed to stat asset")
		}
		h.serveIndex(w, r)
		return
	}

	if contentType := mime.TypeByExtension(filepath.Ext(clean)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	h.fs.ServeHTTP(w, r)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.root, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.Error(w, "Frontend not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, index)
}
