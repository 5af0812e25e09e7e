package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/stitcher/internal/loader"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

type uploadResponse struct {
	SessionID string   `json:"session_id"`
	Message   string   `json:"message"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected,omitempty"`
	Source    string   `json:"source,omitempty"`
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	// Check if this is a JSON request with image URLs
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r)
}

// sessionForUpload returns the named session, or a new one when the
// request names none.
func (h *Handler) sessionForUpload(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	if sessionID == "" {
		return h.newSession(), true
	}
	return h.getSessionOrError(w, sessionID)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SessionID string   `json:"session_id"`
		ImageURL  string   `json:"image_url"`
		ImageURLs []string `json:"image_urls"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	urls := request.ImageURLs
	if request.ImageURL != "" {
		urls = append([]string{request.ImageURL}, urls...)
	}
	if len(urls) == 0 {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadsDir(); err != nil {
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	files := make([]session.File, 0, len(urls))
	for _, u := range urls {
		f, err := h.fileFromURL(r.Context(), u)
		if err != nil {
			h.releaseFiles(files)
			h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
			return
		}
		files = append(files, f)
	}

	sess, ok := h.sessionForUpload(w, request.SessionID)
	if !ok {
		h.releaseFiles(files)
		return
	}
	h.writeJSON(w, h.importFiles(sess, files, "url"))
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "Failed to read file: no files in request", http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadsDir(); err != nil {
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	files := make([]session.File, 0, len(headers))
	for _, header := range headers {
		f, err := h.fileFromUpload(header)
		if err != nil {
			h.releaseFiles(files)
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		files = append(files, f)
	}

	sess, ok := h.sessionForUpload(w, r.FormValue("session_id"))
	if !ok {
		h.releaseFiles(files)
		return
	}
	h.writeJSON(w, h.importFiles(sess, files, ""))
}

func (h *Handler) fileFromUpload(header *multipart.FileHeader) (session.File, error) {
	file, err := header.Open()
	if err != nil {
		return session.File{}, err
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, loader.DefaultMaxBytes+1))
	if err != nil {
		return session.File{}, err
	}
	if int64(len(fileData)) > loader.DefaultMaxBytes {
		return session.File{}, loader.ErrTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	return h.saveImageFile(fileData, header.Filename, contentType)
}

func (h *Handler) importFiles(sess *session.Session, files []session.File, source string) uploadResponse {
	accepted, rejected := sess.Import(files)
	resp := uploadResponse{
		SessionID: sess.ID,
		Message:   uploadMessage(len(accepted)),
		Accepted:  accepted,
		Source:    source,
	}
	if resp.Accepted == nil {
		resp.Accepted = []string{}
	}
	for _, err := range rejected {
		resp.Rejected = append(resp.Rejected, err.Error())
	}
	return resp
}

func uploadMessage(n int) string {
	if n == 1 {
		return "Successfully uploaded 1 image"
	}
	return fmt.Sprintf("Successfully uploaded %d images", n)
}
