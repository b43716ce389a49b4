package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service is the note aggregate. Every mutation that touches more than one
// row runs inside a single store transaction, so the current projection, the
// version log and the notebook counts move together.
type Service struct {
	Store Store
}

type SaveNoteInput struct {
	Title      string
	Content    string
	NotebookID uint64
}

// CreateNote persists a brand-new note: the note row, its current
// projection, the initial version and a +1 on the notebook count. A zero
// NotebookID falls back to the user's default notebook.
func (s *Service) CreateNote(ctx context.Context, userID uint64, in SaveNoteInput) (NoteView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return NoteView{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	var nb *Notebook
	var err error
	if in.NotebookID == 0 {
		nb, err = s.EnsureDefaultNotebook(ctx, userID)
		if err != nil {
			return NoteView{}, err
		}
	} else {
		nb, err = s.resolveNotebook(ctx, userID, in.NotebookID)
		if err != nil {
			return NoteView{}, err
		}
	}

	var view NoteView
	err = s.Store.Transact(ctx, func(tx Store) error {
		n := &Note{UserID: userID, NotebookID: nb.ID}
		if err := tx.CreateNote(ctx, n); err != nil {
			return err
		}

		v := &NoteVersion{
			NoteID:   n.ID,
			UserID:   userID,
			Title:    title,
			Content:  in.Content,
			EditedBy: userID,
		}
		if err := tx.AppendVersion(ctx, v); err != nil {
			return err
		}

		cur := &NoteCurrent{
			NoteID:       n.ID,
			UserID:       userID,
			NotebookID:   nb.ID,
			NotebookName: nb.Name,
			Title:        title,
			Content:      in.Content,
			Images:       ExtractImageURLs(in.Content),
			VersionID:    v.ID,
			UpdatedAt:    time.Now(),
		}
		if err := tx.PutCurrent(ctx, cur); err != nil {
			return err
		}

		if err := tx.AddNoteCount(ctx, userID, nb.ID, +1); err != nil {
			return err
		}

		view = makeView(n, cur)
		return nil
	})
	if err != nil {
		return NoteView{}, err
	}
	return view, nil
}

// SaveNote updates the current projection, appends a version snapshot and,
// when the note moved between notebooks, rebalances both counts.
func (s *Service) SaveNote(ctx context.Context, userID, noteID uint64, in SaveNoteInput) (NoteView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return NoteView{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.NotebookID == 0 {
		return NoteView{}, fmt.Errorf("%w: notebook is required", ErrValidation)
	}

	nb, err := s.resolveNotebook(ctx, userID, in.NotebookID)
	if err != nil {
		return NoteView{}, err
	}

	var view NoteView
	err = s.Store.Transact(ctx, func(tx Store) error {
		n, err := tx.GetNote(ctx, userID, noteID)
		if err != nil {
			return err
		}
		prevNotebookID := n.NotebookID

		v := &NoteVersion{
			NoteID:   n.ID,
			UserID:   userID,
			Title:    title,
			Content:  in.Content,
			EditedBy: userID,
		}
		if err := tx.AppendVersion(ctx, v); err != nil {
			return err
		}

		cur := &NoteCurrent{
			NoteID:       n.ID,
			UserID:       userID,
			NotebookID:   nb.ID,
			NotebookName: nb.Name,
			Title:        title,
			Content:      in.Content,
			Images:       ExtractImageURLs(in.Content),
			VersionID:    v.ID,
			UpdatedAt:    time.Now(),
		}
		if err := tx.PutCurrent(ctx, cur); err != nil {
			return err
		}

		n.NotebookID = nb.ID
		n.UpdatedAt = time.Now()
		if err := tx.UpdateNote(ctx, n); err != nil {
			return err
		}

		if prevNotebookID != nb.ID {
			if err := tx.AddNoteCount(ctx, userID, prevNotebookID, -1); err != nil {
				return err
			}
			if err := tx.AddNoteCount(ctx, userID, nb.ID, +1); err != nil {
				return err
			}
		}

		view = makeView(n, cur)
		return nil
	})
	if err != nil {
		return NoteView{}, err
	}
	return view, nil
}

// DeleteNote removes a note with its projection and versions. Deleting an
// id that no longer resolves is not an error.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID uint64) error {
	n, err := s.Store.GetNote(ctx, userID, noteID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.Store.Transact(ctx, func(tx Store) error {
		if err := tx.DeleteVersions(ctx, userID, noteID); err != nil {
			return err
		}
		if err := tx.DeleteCurrent(ctx, userID, noteID); err != nil {
			return err
		}
		if err := tx.DeleteNote(ctx, userID, noteID); err != nil {
			return err
		}
		return tx.AddNoteCount(ctx, userID, n.NotebookID, -1)
	})
}

// GetNote returns the API view of one note.
func (s *Service) GetNote(ctx context.Context, userID, noteID uint64) (NoteView, error) {
	n, err := s.Store.GetNote(ctx, userID, noteID)
	if err != nil {
		return NoteView{}, err
	}
	cur, err := s.Store.GetCurrent(ctx, userID, noteID)
	if err != nil {
		return NoteView{}, err
	}
	return makeView(n, cur), nil
}

// ListNotes returns the user's notes, most recently updated first.
func (s *Service) ListNotes(ctx context.Context, userID uint64) ([]NoteView, error) {
	currents, err := s.Store.ListCurrents(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]NoteView, 0, len(currents))
	for i := range currents {
		cur := &currents[i]
		n, err := s.Store.GetNote(ctx, userID, cur.NoteID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, makeView(n, cur))
	}
	return out, nil
}

// SharedNote resolves the current projection without an ownership check.
// This backs the unauthenticated /shared-note link; the version history is
// deliberately not reachable this way.
func (s *Service) SharedNote(ctx context.Context, ownerID, noteID uint64) (NoteView, error) {
	n, err := s.Store.GetNote(ctx, ownerID, noteID)
	if err != nil {
		return NoteView{}, err
	}
	cur, err := s.Store.GetCurrent(ctx, ownerID, noteID)
	if err != nil {
		return NoteView{}, err
	}
	return makeView(n, cur), nil
}

// ListVersions returns the note's history, newest first. Each call is a
// fresh read.
func (s *Service) ListVersions(ctx context.Context, userID, noteID uint64) ([]NoteVersion, error) {
	if _, err := s.Store.GetNote(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.Store.ListVersions(ctx, userID, noteID)
}

// Revert makes a past version the new current state. History is never
// rewritten: the revert itself lands as a new version flagged as a
// reversion with a back-reference to its source.
func (s *Service) Revert(ctx context.Context, userID, noteID, versionID uint64) (NoteView, error) {
	var view NoteView
	err := s.Store.Transact(ctx, func(tx Store) error {
		n, err := tx.GetNote(ctx, userID, noteID)
		if err != nil {
			return err
		}
		src, err := tx.GetVersion(ctx, userID, noteID, versionID)
		if err != nil {
			return err
		}
		cur, err := tx.GetCurrent(ctx, userID, noteID)
		if err != nil {
			return err
		}

		from := src.ID
		v := &NoteVersion{
			NoteID:       n.ID,
			UserID:       userID,
			Title:        src.Title,
			Content:      src.Content,
			EditedBy:     userID,
			IsReversion:  true,
			RevertedFrom: &from,
		}
		if err := tx.AppendVersion(ctx, v); err != nil {
			return err
		}

		cur.Title = src.Title
		cur.Content = src.Content
		cur.Images = ExtractImageURLs(src.Content)
		cur.VersionID = v.ID
		cur.UpdatedAt = time.Now()
		if err := tx.PutCurrent(ctx, cur); err != nil {
			return err
		}

		n.UpdatedAt = time.Now()
		if err := tx.UpdateNote(ctx, n); err != nil {
			return err
		}

		view = makeView(n, cur)
		return nil
	})
	if err != nil {
		return NoteView{}, err
	}
	return view, nil
}

func (s *Service) resolveNotebook(ctx context.Context, userID, notebookID uint64) (*Notebook, error) {
	nb, err := s.Store.GetNotebook(ctx, userID, notebookID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: notebook does not exist", ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	return nb, nil
}
