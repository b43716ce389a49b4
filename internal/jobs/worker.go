package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"panne/internal/note"
)

// Queue is the claim/ack surface the worker drains. Repo implements it on
// Postgres.
type Queue interface {
	Claim(workerID string) (*Job, error)
	MarkDone(id uint64) error
	MarkFailed(id uint64, reason string) error
	Retry(job *Job, reason string) error
	EnqueueDrifted(ctx context.Context) (int64, error)
}

// Worker drains the repair queue: purging notes orphaned by best-effort
// cascades and recomputing drifted notebook counts. It also runs a slow
// periodic drift scan so historical inconsistencies heal without a trigger.
type Worker struct {
	ID    string
	Queue Queue
	Store note.Store

	// DriftScanEvery controls the periodic drift scan; zero disables it.
	DriftScanEvery time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	var driftTicker <-chan time.Time
	if w.DriftScanEvery > 0 {
		t := time.NewTicker(w.DriftScanEvery)
		defer t.Stop()
		driftTicker = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-driftTicker:
			n, err := w.Queue.EnqueueDrifted(ctx)
			if err != nil {
				slog.Warn("drift scan failed", "worker", w.ID, "err", err)
			} else if n > 0 {
				slog.Info("drift scan enqueued reconciles", "worker", w.ID, "count", n)
			}
		case <-ticker.C:
			job, err := w.Queue.Claim(w.ID)
			if err != nil {
				slog.Warn("worker claim error", "worker", w.ID, "err", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeNotebookPurge:
		w.handlePurge(ctx, job)
	case TypeNotebookReconcile:
		w.handleReconcile(ctx, job)
	default:
		_ = w.Queue.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handlePurge(ctx context.Context, job *Job) {
	ids, err := w.Store.ListNoteIDs(ctx, job.UserID, job.NotebookID)
	if err != nil {
		_ = w.Queue.Retry(job, "list notes: "+err.Error())
		return
	}

	for _, id := range ids {
		err := w.Store.Transact(ctx, func(tx note.Store) error {
			if err := tx.DeleteVersions(ctx, job.UserID, id); err != nil {
				return err
			}
			if err := tx.DeleteCurrent(ctx, job.UserID, id); err != nil {
				return err
			}
			return tx.DeleteNote(ctx, job.UserID, id)
		})
		if err != nil {
			_ = w.Queue.Retry(job, "purge note: "+err.Error())
			return
		}
	}

	_ = w.Queue.MarkDone(job.ID)
}

func (w *Worker) handleReconcile(ctx context.Context, job *Job) {
	if _, err := w.Store.GetNotebook(ctx, job.UserID, job.NotebookID); err != nil {
		if errors.Is(err, note.ErrNotFound) {
			// notebook gone, nothing to repair
			_ = w.Queue.MarkDone(job.ID)
			return
		}
		_ = w.Queue.Retry(job, "get notebook: "+err.Error())
		return
	}

	actual, err := w.Store.CountNotes(ctx, job.UserID, job.NotebookID)
	if err != nil {
		_ = w.Queue.Retry(job, "count notes: "+err.Error())
		return
	}
	if err := w.Store.SetNoteCount(ctx, job.UserID, job.NotebookID, actual); err != nil {
		_ = w.Queue.Retry(job, "set count: "+err.Error())
		return
	}

	slog.Info("reconciled notebook count",
		"worker", w.ID, "notebook_id", job.NotebookID, "note_count", actual)
	_ = w.Queue.MarkDone(job.ID)
}
