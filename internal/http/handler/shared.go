package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"panne/internal/note"
)

// SharedNoteHandler serves the unauthenticated read-only share link:
// /shared-note?userId=<id>&noteId=<id>. Only the current projection is
// exposed; version history stays behind auth.
type SharedNoteHandler struct {
	Svc *note.Service
}

func (h *SharedNoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, err1 := strconv.ParseUint(r.URL.Query().Get("userId"), 10, 64)
	noteID, err2 := strconv.ParseUint(r.URL.Query().Get("noteId"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid link", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.SharedNote(r.Context(), ownerID, noteID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      view.Title,
		"content":    view.Content,
		"updated_at": view.UpdatedAt,
	})
}
