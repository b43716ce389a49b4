package note

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store, used in tests and for running the
// service without Postgres. Transact snapshots the maps and restores them
// when fn fails; nested Transact calls are not supported.
type MemoryStore struct {
	mu        sync.Mutex
	notebooks map[uint64]Notebook
	notes     map[uint64]Note
	currents  map[uint64]NoteCurrent
	versions  map[uint64]NoteVersion
	nextID    uint64

	// Now is the clock used for assigned timestamps; defaults to time.Now.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notebooks: map[uint64]Notebook{},
		notes:     map[uint64]Note{},
		currents:  map[uint64]NoteCurrent{},
		versions:  map[uint64]NoteVersion{},
		Now:       time.Now,
	}
}

func (s *MemoryStore) now() time.Time {
	return s.Now()
}

func (s *MemoryStore) assignID() uint64 {
	s.nextID++
	return s.nextID
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	notebooks := copyMap(s.notebooks)
	notes := copyMap(s.notes)
	currents := copyMap(s.currents)
	versions := copyMap(s.versions)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.notebooks = notebooks
		s.notes = notes
		s.currents = currents
		s.versions = versions
		s.nextID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) CreateNotebook(ctx context.Context, nb *Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb.ID = s.assignID()
	nb.CreatedAt = s.now()
	nb.UpdatedAt = nb.CreatedAt
	s.notebooks[nb.ID] = *nb
	return nil
}

func (s *MemoryStore) GetNotebook(ctx context.Context, userID, id uint64) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[id]
	if !ok || nb.UserID != userID {
		return nil, ErrNotFound
	}
	out := nb
	return &out, nil
}

func (s *MemoryStore) FirstNotebook(ctx context.Context, userID uint64) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first *Notebook
	for id := range s.notebooks {
		nb := s.notebooks[id]
		if nb.UserID != userID {
			continue
		}
		if first == nil || nb.CreatedAt.Before(first.CreatedAt) ||
			(nb.CreatedAt.Equal(first.CreatedAt) && nb.ID < first.ID) {
			cp := nb
			first = &cp
		}
	}
	if first == nil {
		return nil, ErrNotFound
	}
	return first, nil
}

func (s *MemoryStore) ListNotebooks(ctx context.Context, userID uint64) ([]Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notebook
	for _, nb := range s.notebooks {
		if nb.UserID == userID {
			out = append(out, nb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteNotebook(ctx context.Context, userID, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nb, ok := s.notebooks[id]; ok && nb.UserID == userID {
		delete(s.notebooks, id)
	}
	return nil
}

func (s *MemoryStore) AddNoteCount(ctx context.Context, userID, notebookID uint64, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[notebookID]
	if !ok || nb.UserID != userID {
		return nil
	}
	nb.NoteCount += delta
	if nb.NoteCount < 0 {
		nb.NoteCount = 0
	}
	nb.UpdatedAt = s.now()
	s.notebooks[notebookID] = nb
	return nil
}

func (s *MemoryStore) SetNoteCount(ctx context.Context, userID, notebookID uint64, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[notebookID]
	if !ok || nb.UserID != userID {
		return nil
	}
	nb.NoteCount = n
	nb.UpdatedAt = s.now()
	s.notebooks[notebookID] = nb
	return nil
}

func (s *MemoryStore) CountNotes(ctx context.Context, userID, notebookID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, nt := range s.notes {
		if nt.UserID == userID && nt.NotebookID == notebookID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateNote(ctx context.Context, n *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.assignID()
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt
	s.notes[n.ID] = *n
	return nil
}

func (s *MemoryStore) GetNote(ctx context.Context, userID, id uint64) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, ErrNotFound
	}
	out := n
	return &out, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, n *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[n.ID]; !ok {
		return ErrNotFound
	}
	s.notes[n.ID] = *n
	return nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, userID, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notes[id]; ok && n.UserID == userID {
		delete(s.notes, id)
	}
	return nil
}

func (s *MemoryStore) ListNoteIDs(ctx context.Context, userID, notebookID uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, n := range s.notes {
		if n.UserID == userID && n.NotebookID == notebookID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) PutCurrent(ctx context.Context, cur *NoteCurrent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currents[cur.NoteID] = *cur
	return nil
}

func (s *MemoryStore) GetCurrent(ctx context.Context, userID, noteID uint64) (*NoteCurrent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.currents[noteID]
	if !ok || cur.UserID != userID {
		return nil, ErrNotFound
	}
	out := cur
	return &out, nil
}

func (s *MemoryStore) ListCurrents(ctx context.Context, userID uint64) ([]NoteCurrent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NoteCurrent
	for _, cur := range s.currents {
		if cur.UserID == userID {
			out = append(out, cur)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].NoteID > out[j].NoteID
	})
	return out, nil
}

func (s *MemoryStore) DeleteCurrent(ctx context.Context, userID, noteID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.currents[noteID]; ok && cur.UserID == userID {
		delete(s.currents, noteID)
	}
	return nil
}

func (s *MemoryStore) AppendVersion(ctx context.Context, v *NoteVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.assignID()
	v.CreatedAt = s.now()
	s.versions[v.ID] = *v
	return nil
}

func (s *MemoryStore) GetVersion(ctx context.Context, userID, noteID, versionID uint64) (*NoteVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.UserID != userID || v.NoteID != noteID {
		return nil, ErrNotFound
	}
	out := v
	return &out, nil
}

func (s *MemoryStore) ListVersions(ctx context.Context, userID, noteID uint64) ([]NoteVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NoteVersion
	for _, v := range s.versions {
		if v.UserID == userID && v.NoteID == noteID {
			out = append(out, v)
		}
	}
	// newest first, id breaks timestamp ties
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteVersions(ctx context.Context, userID, noteID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.versions {
		if v.UserID == userID && v.NoteID == noteID {
			delete(s.versions, id)
		}
	}
	return nil
}
