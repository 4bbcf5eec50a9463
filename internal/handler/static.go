package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SPAHandler serves the built frontend. Unknown paths fall back to
// index.html so client-side routes survive a reload; /api and /auth paths
// never do.
type SPAHandler struct {
	staticDir string
	indexFile string
}

func NewSPAHandler(staticDir string) *SPAHandler {
	return &SPAHandler{
		staticDir: staticDir,
		indexFile: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	if p == "" {
		p = strings.TrimPrefix(r.URL.Path, "/")
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")

	if p == "api" || strings.HasPrefix(p, "api/") || strings.HasPrefix(p, "auth/") {
		http.NotFound(w, r)
		return
	}

	if p != "" && !hasHiddenSegment(p) {
		filePath := filepath.Join(h.staticDir, filepath.FromSlash(p))
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			http.ServeFile(w, r, filePath)
			return
		}
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, indexPath)
}

func hasHiddenSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
