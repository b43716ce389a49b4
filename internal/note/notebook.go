package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// CreateNotebook makes an empty notebook for the user.
func (s *Service) CreateNotebook(ctx context.Context, userID uint64, name, description string) (*Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	nb := &Notebook{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		NoteCount:   0,
	}
	if err := s.Store.CreateNotebook(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

// ListNotebooks returns the user's notebooks, most recently updated first.
func (s *Service) ListNotebooks(ctx context.Context, userID uint64) ([]Notebook, error) {
	return s.Store.ListNotebooks(ctx, userID)
}

// GetNotebook resolves one notebook owned by the user.
func (s *Service) GetNotebook(ctx context.Context, userID, notebookID uint64) (*Notebook, error) {
	return s.Store.GetNotebook(ctx, userID, notebookID)
}

// EnsureDefaultNotebook returns the user's first notebook, creating one with
// the default name when none exist yet. Two concurrent first calls can both
// create a notebook; the earlier row wins on subsequent calls.
func (s *Service) EnsureDefaultNotebook(ctx context.Context, userID uint64) (*Notebook, error) {
	nb, err := s.Store.FirstNotebook(ctx, userID)
	if err == nil {
		return nb, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateNotebook(ctx, userID, DefaultNotebookName, "")
}

// Enqueuer lets the notebook cascade hand a repair job to the jobs layer
// when a best-effort delete leaves orphaned notes behind.
type Enqueuer interface {
	EnqueuePurge(ctx context.Context, userID, notebookID uint64) error
}

// DeleteNotebook removes a notebook and every note inside it.
//
// In fail-fast mode the whole cascade is one transaction: either the
// notebook and all its notes are gone, or nothing is. In best-effort mode
// notes are deleted one by one, the notebook row is removed regardless, the
// combined error is reported, and a purge job is enqueued so leftovers get
// swept later.
func (s *Service) DeleteNotebook(ctx context.Context, userID, notebookID uint64, bestEffort bool, enq Enqueuer) error {
	if _, err := s.Store.GetNotebook(ctx, userID, notebookID); err != nil {
		return err
	}

	if !bestEffort {
		return s.Store.Transact(ctx, func(tx Store) error {
			ids, err := tx.ListNoteIDs(ctx, userID, notebookID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := tx.DeleteVersions(ctx, userID, id); err != nil {
					return err
				}
				if err := tx.DeleteCurrent(ctx, userID, id); err != nil {
					return err
				}
				if err := tx.DeleteNote(ctx, userID, id); err != nil {
					return err
				}
			}
			return tx.DeleteNotebook(ctx, userID, notebookID)
		})
	}

	ids, err := s.Store.ListNoteIDs(ctx, userID, notebookID)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		err := s.Store.Transact(ctx, func(tx Store) error {
			if err := tx.DeleteVersions(ctx, userID, id); err != nil {
				return err
			}
			if err := tx.DeleteCurrent(ctx, userID, id); err != nil {
				return err
			}
			return tx.DeleteNote(ctx, userID, id)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete note %d: %w", id, err))
		}
	}

	if err := s.Store.DeleteNotebook(ctx, userID, notebookID); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		if enq != nil {
			if qerr := enq.EnqueuePurge(ctx, userID, notebookID); qerr != nil {
				slog.Warn("failed to enqueue notebook purge", "notebook_id", notebookID, "err", qerr)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}
