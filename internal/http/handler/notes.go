package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"panne/internal/auth"
	"panne/internal/note"

	"github.com/go-chi/chi/v5"
)

type NoteHandler struct {
	Svc *note.Service
}

type saveNoteReq struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	NotebookID uint64 `json:"notebook_id"`
}

type versionDTO struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	EditedBy     uint64    `json:"edited_by"`
	IsReversion  bool      `json:"is_reversion"`
	RevertedFrom *uint64   `json:"reverted_from,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func noteID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req saveNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.CreateNote(r.Context(), uid, note.SaveNoteInput{
		Title:      req.Title,
		Content:    req.Content,
		NotebookID: req.NotebookID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(view)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	views, err := h.Svc.ListNotes(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.GetNote(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req saveNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.SaveNote(r.Context(), uid, id, note.SaveNoteInput{
		Title:      req.Title,
		Content:    req.Content,
		NotebookID: req.NotebookID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.DeleteNote(r.Context(), uid, id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	versions, err := h.Svc.ListVersions(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]versionDTO, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionDTO{
			ID:           v.ID,
			Title:        v.Title,
			Content:      v.Content,
			EditedBy:     v.EditedBy,
			IsReversion:  v.IsReversion,
			RevertedFrom: v.RevertedFrom,
			Timestamp:    v.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type revertReq struct {
	VersionID uint64 `json:"version_id"`
}

func (h *NoteHandler) Revert(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req revertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	view, err := h.Svc.Revert(r.Context(), uid, id, req.VersionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}
