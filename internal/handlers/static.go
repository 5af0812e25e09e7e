package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = "index.html"
	}

	// Check if image URL parameters are provided
	if imageURLs := r.URL.Query()["image"]; len(imageURLs) > 0 {
		if err := h.ensureUploadsDir(); err != nil {
			h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
			return
		}
		files := make([]session.File, 0, len(imageURLs))
		for _, u := range imageURLs {
			f, err := h.fileFromURL(r.Context(), u)
			if err != nil {
				h.releaseFiles(files)
				slog.Error("Failed to create session from URL", "url", u, "error", err)
				http.Error(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
				return
			}
			files = append(files, f)
		}
		sess := h.newSession()
		sess.Import(files)

		// Redirect to the homepage
		http.Redirect(w, r, "/?session="+sess.ID, http.StatusFound)
		return
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, filepath.Join(h.staticDir, path))
}
