package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"tuneshelf/logger"
	"tuneshelf/storage"
)

// BlobHandler serves uploaded audio blobs from the blob store under the
// /uploads/ prefix, regardless of which backend holds them.
type BlobHandler struct {
	store storage.BlobStore
}

// NewBlobHandler creates a BlobHandler over the given store.
func NewBlobHandler(store storage.BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

// ServeHTTP implements the http.Handler interface.
func (h *BlobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, storage.ServePrefix)

	blob, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logger.Error("Failed to open blob", logger.String("name", name), logger.ErrorField(err))
		http.Error(w, "Failed to serve file", http.StatusInternalServerError)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, blob); err != nil {
		logger.Error("Error serving blob", logger.String("name", name), logger.ErrorField(err))
	}
}

// contentTypeFor detects the content type from the blob's extension.
func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
