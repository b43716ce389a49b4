package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"panne/internal/auth"
	"panne/internal/blob"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type UploadHandler struct {
	Uploader blob.Uploader
}

// Upload accepts one multipart image under the "image" field and returns
// the stable URL to embed in note content. A failed upload leaves nothing
// half-inserted.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "bad multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "not an image", http.StatusBadRequest)
		return
	}

	url, err := h.Uploader.Upload(r.Context(), uid, header.Filename, data, contentType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"url": url})
}
