package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"panne/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Load(key string) ([]byte, error) {
	b, ok := c.data[key]
	if !ok {
		return nil, snapshot.ErrMiss
	}
	return b, nil
}

func (c *mapCache) Store(key string, data []byte) error {
	c.data[key] = data
	return nil
}

// fakeServer serves just enough of the API for the client: /me plus
// mutable note and notebook lists.
type fakeServer struct {
	notes     []Note
	notebooks []Notebook
	down      atomic.Bool
	fetches   atomic.Int64
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"user_id": 1})
	})
	mux.HandleFunc("GET /notes", func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		if f.down.Load() {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(f.notes)
	})
	mux.HandleFunc("POST /notes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		n := Note{ID: uint64(len(f.notes) + 1), Title: req.Title, Content: req.Content, NotebookID: 1}
		f.notes = append([]Note{n}, f.notes...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(n)
	})
	mux.HandleFunc("GET /notebooks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.notebooks)
	})
	mux.HandleFunc("DELETE /notebooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeServer, cache snapshot.Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c := New(srv.URL, cache)
	require.NoError(t, c.SetToken(context.Background(), "token"))
	return c
}

func TestListNotesRendersSnapshotThenOverwrites(t *testing.T) {
	cache := newMapCache()
	stale, _ := json.Marshal([]Note{{ID: 9, Title: "stale"}})
	cache.data[snapshot.NotesKey(1)] = stale

	f := &fakeServer{notes: []Note{{ID: 1, Title: "fresh"}}}
	c := newTestClient(t, f, cache)

	var provisional []Note
	got, err := c.ListNotes(context.Background(), func(v []Note) { provisional = v })
	require.NoError(t, err)

	require.Len(t, provisional, 1)
	assert.Equal(t, "stale", provisional[0].Title)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Title)

	var persisted []Note
	require.NoError(t, json.Unmarshal(cache.data[snapshot.NotesKey(1)], &persisted))
	assert.Equal(t, "fresh", persisted[0].Title)
}

func TestListNotesSurvivesOutageWithSnapshot(t *testing.T) {
	cache := newMapCache()
	f := &fakeServer{notes: []Note{{ID: 1, Title: "a"}}}
	c := newTestClient(t, f, cache)

	_, err := c.ListNotes(context.Background(), nil)
	require.NoError(t, err)

	f.down.Store(true)
	got, err := c.ListNotes(context.Background(), nil)
	require.NoError(t, err, "snapshot covers the outage")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Title)
}

func TestListNotesFailsWithoutSnapshot(t *testing.T) {
	f := &fakeServer{}
	f.down.Store(true)
	c := newTestClient(t, f, newMapCache())

	_, err := c.ListNotes(context.Background(), nil)
	require.Error(t, err)
}

func TestDeleteNotebookPrunesBothSnapshots(t *testing.T) {
	cache := newMapCache()
	f := &fakeServer{
		notebooks: []Notebook{{ID: 1, Name: "Work"}, {ID: 2, Name: "Home"}},
		notes: []Note{
			{ID: 10, NotebookID: 1, Title: "in work"},
			{ID: 11, NotebookID: 2, Title: "in home"},
		},
	}
	c := newTestClient(t, f, cache)

	_, err := c.ListNotes(context.Background(), nil)
	require.NoError(t, err)
	_, err = c.ListNotebooks(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, c.DeleteNotebook(context.Background(), 1))

	var notebooks []Notebook
	require.NoError(t, json.Unmarshal(cache.data[snapshot.NotebooksKey(1)], &notebooks))
	require.Len(t, notebooks, 1)
	assert.Equal(t, uint64(2), notebooks[0].ID)

	var notes []Note
	require.NoError(t, json.Unmarshal(cache.data[snapshot.NotesKey(1)], &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, uint64(11), notes[0].ID, "cascaded notes leave the snapshot too")
}

func TestCreateNoteEchoesIntoSnapshot(t *testing.T) {
	cache := newMapCache()
	f := &fakeServer{}
	c := newTestClient(t, f, cache)

	_, err := c.ListNotes(context.Background(), nil)
	require.NoError(t, err)

	n, err := c.CreateNote(context.Background(), "new", "body", 0)
	require.NoError(t, err)

	fetchesBefore := f.fetches.Load()

	var persisted []Note
	require.NoError(t, json.Unmarshal(cache.data[snapshot.NotesKey(1)], &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, n.ID, persisted[0].ID)
	assert.Equal(t, fetchesBefore, f.fetches.Load(), "echo is local, no refetch")
}
