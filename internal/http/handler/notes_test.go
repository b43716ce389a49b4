package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"panne/internal/auth"
	"panne/internal/config"
	"panne/internal/note"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router http.Handler
	store  *note.MemoryStore
	token  string
}

func newTestEnv(t *testing.T, userID uint64) *testEnv {
	t.Helper()

	store := note.NewMemoryStore()
	svc := &note.Service{Store: store}
	jwtSvc := auth.NewJWT("test-secret", time.Hour)

	token, err := jwtSvc.Sign(userID, "tester")
	require.NoError(t, err)

	noteH := &NoteHandler{Svc: svc}
	nbH := &NotebookHandler{Svc: svc, Cascade: config.CascadeFailFast}
	sharedH := &SharedNoteHandler{Svc: svc}

	r := chi.NewRouter()
	r.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Post("/", noteH.Create)
		r.Get("/", noteH.List)
		r.Get("/{id}", noteH.Get)
		r.Put("/{id}", noteH.Save)
		r.Delete("/{id}", noteH.Delete)
		r.Get("/{id}/versions", noteH.ListVersions)
		r.Post("/{id}/revert", noteH.Revert)
	})
	r.Route("/notebooks", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Post("/", nbH.Create)
		r.Get("/", nbH.List)
		r.Delete("/{id}", nbH.Delete)
	})
	r.Get("/shared-note", sharedH.Get)

	return &testEnv{router: r, store: store, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, withAuth bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestCreateNote(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "First", Content: "<p>hi</p>"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	view := decode[note.NoteView](t, rec)
	assert.NotZero(t, view.ID)
	assert.Equal(t, "First", view.Title)
	assert.NotZero(t, view.NotebookID, "lands in the default notebook")
}

func TestCreateNoteEmptyTitle(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "", Content: "body"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/notes/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]note.NoteView](t, rec))
}

func TestNotesRequireAuth(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodGet, "/notes/", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSaveAndVersions(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "v1", Content: "one"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", created.ID),
		saveNoteReq{Title: "v2", Content: "two", NotebookID: created.NotebookID}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/notes/%d/versions", created.ID), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	versions := decode[[]versionDTO](t, rec)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].Title, "newest first")
	assert.Equal(t, "v1", versions[1].Title)
}

func TestRevertFlow(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "original", Content: "a"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/notes/%d", created.ID),
		saveNoteReq{Title: "edited", Content: "b", NotebookID: created.NotebookID}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/notes/%d/versions", created.ID), nil, true)
	versions := decode[[]versionDTO](t, rec)
	require.Len(t, versions, 2)
	originalID := versions[1].ID

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/notes/%d/revert", created.ID),
		revertReq{VersionID: originalID}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[note.NoteView](t, rec)
	assert.Equal(t, "original", view.Title)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/notes/%d/versions", created.ID), nil, true)
	versions = decode[[]versionDTO](t, rec)
	require.Len(t, versions, 3, "revert appends, never rewrites history")
	assert.True(t, versions[0].IsReversion)
	require.NotNil(t, versions[0].RevertedFrom)
	assert.Equal(t, originalID, *versions[0].RevertedFrom)
}

func TestRevertUnknownVersion(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "n", Content: "c"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/notes/%d/revert", created.ID),
		revertReq{VersionID: 9999}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteNote(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "n", Content: "c"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", created.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/notes/%d", created.ID), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deleting again stays quiet
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", created.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNotebookCreateAndDelete(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notebooks/", createNotebookReq{Name: "Work"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	nb := decode[notebookDTO](t, rec)
	assert.Equal(t, "Work", nb.Name)
	assert.Zero(t, nb.NoteCount)

	rec = env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "n", Content: "c", NotebookID: nb.ID}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/notebooks/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]notebookDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].NoteCount)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/notebooks/%d", nb.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/notes/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]note.NoteView](t, rec), "cascade removed the notes")
}

func TestNotebookCreateEmptyName(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodPost, "/notebooks/", createNotebookReq{Name: "  "}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSharedNote(t *testing.T) {
	env := newTestEnv(t, 42)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "public", Content: "hello"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/shared-note?userId=42&noteId=%d", created.ID), nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "public", body["title"])
	assert.Equal(t, "hello", body["content"])
}

func TestSharedNoteWrongOwner(t *testing.T) {
	env := newTestEnv(t, 42)

	rec := env.do(t, http.MethodPost, "/notes/", saveNoteReq{Title: "p", Content: "c"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[note.NoteView](t, rec)

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/shared-note?userId=7&noteId=%d", created.ID), nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSharedNoteInvalidLink(t *testing.T) {
	env := newTestEnv(t, 1)

	rec := env.do(t, http.MethodGet, "/shared-note?userId=abc&noteId=1", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
