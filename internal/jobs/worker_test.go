package jobs

import (
	"context"
	"errors"
	"testing"

	"panne/internal/note"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue records acks instead of touching Postgres.
type fakeQueue struct {
	done    []uint64
	failed  []uint64
	retried []uint64
}

func (q *fakeQueue) Claim(string) (*Job, error) { return nil, nil }

func (q *fakeQueue) EnqueueDrifted(context.Context) (int64, error) { return 0, nil }

func (q *fakeQueue) MarkDone(id uint64) error {
	q.done = append(q.done, id)
	return nil
}

func (q *fakeQueue) MarkFailed(id uint64, _ string) error {
	q.failed = append(q.failed, id)
	return nil
}

func (q *fakeQueue) Retry(job *Job, _ string) error {
	q.retried = append(q.retried, job.ID)
	return nil
}

func seedNotebook(t *testing.T, store note.Store, userID uint64, n int) *note.Notebook {
	t.Helper()
	ctx := context.Background()

	nb := &note.Notebook{UserID: userID, Name: "Work"}
	require.NoError(t, store.CreateNotebook(ctx, nb))

	for i := 0; i < n; i++ {
		nt := &note.Note{UserID: userID, NotebookID: nb.ID}
		require.NoError(t, store.CreateNote(ctx, nt))
		v := &note.NoteVersion{NoteID: nt.ID, UserID: userID, Title: "t", EditedBy: userID}
		require.NoError(t, store.AppendVersion(ctx, v))
		require.NoError(t, store.PutCurrent(ctx, &note.NoteCurrent{
			NoteID: nt.ID, UserID: userID, NotebookID: nb.ID,
			NotebookName: nb.Name, Title: "t", VersionID: v.ID,
		}))
	}
	return nb
}

func TestPurgeRemovesOrphanedNotes(t *testing.T) {
	ctx := context.Background()
	store := note.NewMemoryStore()
	nb := seedNotebook(t, store, 1, 3)

	// the notebook row itself is already gone after a best-effort cascade
	require.NoError(t, store.DeleteNotebook(ctx, 1, nb.ID))

	q := &fakeQueue{}
	w := &Worker{ID: "w1", Queue: q, Store: store}
	w.handle(ctx, &Job{ID: 10, UserID: 1, NotebookID: nb.ID, Type: TypeNotebookPurge})

	ids, err := store.ListNoteIDs(ctx, 1, nb.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	currents, err := store.ListCurrents(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, currents)

	assert.Equal(t, []uint64{10}, q.done)
	assert.Empty(t, q.retried)
}

type undeletableStore struct {
	note.Store
}

func (s *undeletableStore) DeleteNote(context.Context, uint64, uint64) error {
	return errors.New("disk full")
}

func (s *undeletableStore) Transact(ctx context.Context, fn func(note.Store) error) error {
	return s.Store.Transact(ctx, func(tx note.Store) error {
		return fn(&undeletableStore{Store: tx})
	})
}

func TestPurgeRetriesOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := note.NewMemoryStore()
	nb := seedNotebook(t, store, 1, 1)

	q := &fakeQueue{}
	w := &Worker{ID: "w1", Queue: q, Store: &undeletableStore{Store: store}}
	w.handle(ctx, &Job{ID: 11, UserID: 1, NotebookID: nb.ID, Type: TypeNotebookPurge})

	assert.Equal(t, []uint64{11}, q.retried)
	assert.Empty(t, q.done)

	// the failed transaction left the note intact
	ids, err := store.ListNoteIDs(ctx, 1, nb.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestReconcileResetsDriftedCount(t *testing.T) {
	ctx := context.Background()
	store := note.NewMemoryStore()
	nb := seedNotebook(t, store, 1, 2)

	require.NoError(t, store.SetNoteCount(ctx, 1, nb.ID, 99))

	q := &fakeQueue{}
	w := &Worker{ID: "w1", Queue: q, Store: store}
	w.handle(ctx, &Job{ID: 12, UserID: 1, NotebookID: nb.ID, Type: TypeNotebookReconcile})

	got, err := store.GetNotebook(ctx, 1, nb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.NoteCount)
	assert.Equal(t, []uint64{12}, q.done)
}

func TestReconcileMissingNotebookIsDone(t *testing.T) {
	q := &fakeQueue{}
	w := &Worker{ID: "w1", Queue: q, Store: note.NewMemoryStore()}
	w.handle(context.Background(), &Job{ID: 13, UserID: 1, NotebookID: 404, Type: TypeNotebookReconcile})

	assert.Equal(t, []uint64{13}, q.done)
	assert.Empty(t, q.retried)
}

func TestUnknownJobTypeFails(t *testing.T) {
	q := &fakeQueue{}
	w := &Worker{ID: "w1", Queue: q, Store: note.NewMemoryStore()}
	w.handle(context.Background(), &Job{ID: 14, Type: "MYSTERY"})

	assert.Equal(t, []uint64{14}, q.failed)
}
