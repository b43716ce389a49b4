// Package client is a thin JSON client for the panne API. List reads go
// through the local snapshot cache: a cached copy renders first, the
// server response overwrites it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"panne/internal/snapshot"
)

type Note struct {
	ID           uint64    `json:"id"`
	NotebookID   uint64    `json:"notebook_id"`
	NotebookName string    `json:"notebook_name"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Notebook struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	NoteCount   int64     `json:"note_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Version struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	EditedBy     uint64    `json:"edited_by"`
	IsReversion  bool      `json:"is_reversion"`
	RevertedFrom *uint64   `json:"reverted_from,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
	UserID  uint64

	cache     snapshot.Cache
	notes     *snapshot.Loader[[]Note]
	notebooks *snapshot.Loader[[]Notebook]
}

func New(baseURL string, cache snapshot.Cache) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tokenResp struct {
	Token string `json:"token"`
}

func (c *Client) Register(ctx context.Context, email, password, displayName string) error {
	var tr tokenResp
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": password, "display_name": displayName,
	}, &tr)
	if err != nil {
		return err
	}
	return c.SetToken(ctx, tr.Token)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var tr tokenResp
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &tr)
	if err != nil {
		return err
	}
	return c.SetToken(ctx, tr.Token)
}

// SetToken installs an auth token, resolves the user id behind it and keys
// the snapshot loaders to that user.
func (c *Client) SetToken(ctx context.Context, token string) error {
	c.Token = token

	var me struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", nil, &me); err != nil {
		return err
	}
	c.UserID = me.UserID

	c.notes = &snapshot.Loader[[]Note]{
		Cache: c.cache,
		Key:   snapshot.NotesKey(me.UserID),
		Fetch: func(ctx context.Context) ([]Note, error) {
			var out []Note
			err := c.do(ctx, http.MethodGet, "/notes", nil, &out)
			return out, err
		},
	}
	c.notebooks = &snapshot.Loader[[]Notebook]{
		Cache: c.cache,
		Key:   snapshot.NotebooksKey(me.UserID),
		Fetch: func(ctx context.Context) ([]Notebook, error) {
			var out []Notebook
			err := c.do(ctx, http.MethodGet, "/notebooks", nil, &out)
			return out, err
		},
	}
	return nil
}

// ListNotes renders the snapshot through onProvisional when present, then
// returns the authoritative list.
func (c *Client) ListNotes(ctx context.Context, onProvisional func([]Note)) ([]Note, error) {
	return c.notes.Load(ctx, onProvisional)
}

func (c *Client) ListNotebooks(ctx context.Context, onProvisional func([]Notebook)) ([]Notebook, error) {
	return c.notebooks.Load(ctx, onProvisional)
}

func (c *Client) CreateNote(ctx context.Context, title, content string, notebookID uint64) (Note, error) {
	var n Note
	err := c.do(ctx, http.MethodPost, "/notes", map[string]any{
		"title": title, "content": content, "notebook_id": notebookID,
	}, &n)
	if err != nil {
		return Note{}, err
	}

	// local echo: the new note leads the cached list until the next fetch
	if cur, ok := c.notes.Value(); ok {
		c.notes.Set(append([]Note{n}, cur...))
	} else {
		c.notes.Set([]Note{n})
	}
	return n, nil
}

func (c *Client) SaveNote(ctx context.Context, id uint64, title, content string, notebookID uint64) (Note, error) {
	var n Note
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/notes/%d", id), map[string]any{
		"title": title, "content": content, "notebook_id": notebookID,
	}, &n)
	if err != nil {
		return Note{}, err
	}

	if cur, ok := c.notes.Value(); ok {
		updated := make([]Note, len(cur))
		for i, e := range cur {
			if e.ID == id {
				updated[i] = n
			} else {
				updated[i] = e
			}
		}
		c.notes.Set(updated)
	}
	return n, nil
}

func (c *Client) DeleteNote(ctx context.Context, id uint64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/notes/%d", id), nil, nil); err != nil {
		return err
	}

	if cur, ok := c.notes.Value(); ok {
		kept := cur[:0:0]
		for _, e := range cur {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		c.notes.Set(kept)
	}
	return nil
}

func (c *Client) CreateNotebook(ctx context.Context, name, description string) (Notebook, error) {
	var nb Notebook
	err := c.do(ctx, http.MethodPost, "/notebooks", map[string]string{
		"name": name, "description": description,
	}, &nb)
	if err != nil {
		return Notebook{}, err
	}

	if cur, ok := c.notebooks.Value(); ok {
		c.notebooks.Set(append([]Notebook{nb}, cur...))
	} else {
		c.notebooks.Set([]Notebook{nb})
	}
	return nb, nil
}

func (c *Client) DeleteNotebook(ctx context.Context, id uint64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/notebooks/%d", id), nil, nil); err != nil {
		return err
	}

	if cur, ok := c.notebooks.Value(); ok {
		kept := cur[:0:0]
		for _, e := range cur {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		c.notebooks.Set(kept)
	}

	// the server cascaded the notebook's notes; drop them from the echo too
	if cur, ok := c.notes.Value(); ok {
		kept := cur[:0:0]
		for _, e := range cur {
			if e.NotebookID != id {
				kept = append(kept, e)
			}
		}
		c.notes.Set(kept)
	}
	return nil
}

func (c *Client) ListVersions(ctx context.Context, noteID uint64) ([]Version, error) {
	var out []Version
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/notes/%d/versions", noteID), nil, &out)
	return out, err
}

func (c *Client) Revert(ctx context.Context, noteID, versionID uint64) (Note, error) {
	var n Note
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/notes/%d/revert", noteID), map[string]any{
		"version_id": versionID,
	}, &n)
	return n, err
}
