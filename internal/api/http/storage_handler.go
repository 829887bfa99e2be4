package http

import (
	"io"
	"net/http"
	"path/filepath"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/storage"

	"github.com/gorilla/mux"
)

// StorageHandler serves the upload/download URLs handed out by the local
// image store.
type StorageHandler struct {
	store        storage.StorageInterface
	allowedTypes map[string]bool
}

func NewStorageHandler(store storage.StorageInterface, allowedTypes []string) *StorageHandler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &StorageHandler{store: store, allowedTypes: allowed}
}

// Upload handles the PUT against a generated upload URL.
func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing key parameter"})
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !h.allowedTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid content type"})
		return
	}

	if err := h.store.VerifyUploadToken(mux.Vars(r)["token"], key, contentType); err != nil {
		logger.WarnContext(r.Context(), "Rejected upload", "key", key, "error", err)
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
		return
	}

	if err := h.store.SaveFile(key, r.Body); err != nil {
		writeError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "Image uploaded", "key", key)
	w.Header().Set("ETag", `"`+key+`"`)
	w.WriteHeader(http.StatusOK)
}

// Download streams a stored image.
func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing key parameter"})
		return
	}

	file, err := h.store.ReadFile(key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "file not found"})
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch filepath.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.WarnContext(r.Context(), "Failed to stream file", "key", key, "error", err)
	}
}
