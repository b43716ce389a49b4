package note

import "context"

// Store is the narrow persistence surface the aggregates write through.
// Implementations return ErrNotFound for unresolved ids and assign ids and
// timestamps on create.
type Store interface {
	// Transact runs fn against a transaction-bound store. A nested call
	// reuses the surrounding transaction's semantics of the backing driver.
	Transact(ctx context.Context, fn func(Store) error) error

	CreateNotebook(ctx context.Context, nb *Notebook) error
	GetNotebook(ctx context.Context, userID, id uint64) (*Notebook, error)
	FirstNotebook(ctx context.Context, userID uint64) (*Notebook, error)
	ListNotebooks(ctx context.Context, userID uint64) ([]Notebook, error)
	DeleteNotebook(ctx context.Context, userID, id uint64) error
	// AddNoteCount applies a ±delta to the denormalized count, floored at zero.
	AddNoteCount(ctx context.Context, userID, notebookID uint64, delta int64) error
	SetNoteCount(ctx context.Context, userID, notebookID uint64, n int64) error
	CountNotes(ctx context.Context, userID, notebookID uint64) (int64, error)

	CreateNote(ctx context.Context, n *Note) error
	GetNote(ctx context.Context, userID, id uint64) (*Note, error)
	UpdateNote(ctx context.Context, n *Note) error
	DeleteNote(ctx context.Context, userID, id uint64) error
	ListNoteIDs(ctx context.Context, userID, notebookID uint64) ([]uint64, error)

	PutCurrent(ctx context.Context, cur *NoteCurrent) error
	GetCurrent(ctx context.Context, userID, noteID uint64) (*NoteCurrent, error)
	ListCurrents(ctx context.Context, userID uint64) ([]NoteCurrent, error)
	DeleteCurrent(ctx context.Context, userID, noteID uint64) error

	AppendVersion(ctx context.Context, v *NoteVersion) error
	GetVersion(ctx context.Context, userID, noteID, versionID uint64) (*NoteVersion, error)
	// ListVersions returns versions newest first: created_at desc, id desc.
	ListVersions(ctx context.Context, userID, noteID uint64) ([]NoteVersion, error)
	DeleteVersions(ctx context.Context, userID, noteID uint64) error
}
