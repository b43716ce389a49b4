package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"panne/internal/blob"
	"panne/internal/note"
)

// writeDomainError maps service errors onto status codes; anything
// unexpected is logged and reported as a plain server error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, note.ErrValidation):
		http.Error(w, strings.TrimPrefix(err.Error(), note.ErrValidation.Error()+": "), http.StatusBadRequest)
	case errors.Is(err, note.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, blob.ErrUpload):
		http.Error(w, "upload failed", http.StatusBadGateway)
	default:
		slog.Error("request failed", "err", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
