package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"panne/internal/auth"
	"panne/internal/config"
	"panne/internal/jobs"
	"panne/internal/note"

	"github.com/go-chi/chi/v5"
)

type NotebookHandler struct {
	Svc     *note.Service
	Jobs    *jobs.Repo
	Cascade config.CascadeMode
}

type createNotebookReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type notebookDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	NoteCount   int64     `json:"note_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toNotebookDTO(nb *note.Notebook) notebookDTO {
	return notebookDTO{
		ID:          nb.ID,
		Name:        nb.Name,
		Description: nb.Description,
		NoteCount:   nb.NoteCount,
		CreatedAt:   nb.CreatedAt,
		UpdatedAt:   nb.UpdatedAt,
	}
}

func (h *NotebookHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createNotebookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	nb, err := h.Svc.CreateNotebook(r.Context(), uid, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toNotebookDTO(nb))
}

func (h *NotebookHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	notebooks, err := h.Svc.ListNotebooks(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]notebookDTO, 0, len(notebooks))
	for i := range notebooks {
		out = append(out, toNotebookDTO(&notebooks[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *NotebookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	bestEffort := h.Cascade == config.CascadeBestEffort
	if err := h.Svc.DeleteNotebook(r.Context(), uid, id, bestEffort, h.Jobs); err != nil {
		if bestEffort && !errors.Is(err, note.ErrNotFound) {
			// notebook row is gone; the purge job sweeps the leftovers
			slog.Warn("best-effort cascade left orphans", "notebook_id", id, "err", err)
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
