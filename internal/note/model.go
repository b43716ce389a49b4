package note

import (
	"time"

	"github.com/lib/pq"
)

// DefaultNotebookName is used when a user saves their first note without
// ever having created a notebook.
const DefaultNotebookName = "My Notebook"

// Notebook groups notes. NoteCount is a denormalized membership count,
// maintained by ±1 updates and repaired lazily by the reconcile worker.
type Notebook struct {
	ID          uint64    `gorm:"primaryKey"`
	UserID      uint64    `gorm:"index;not null"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	NoteCount   int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;default:now()"`
	UpdatedAt   time.Time `gorm:"index;not null;default:now()"`
}

// Note is a container. Editable state lives in NoteCurrent and the
// append-only NoteVersion log.
type Note struct {
	ID         uint64    `gorm:"primaryKey"`
	UserID     uint64    `gorm:"index;not null"`
	NotebookID uint64    `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
	UpdatedAt  time.Time `gorm:"index;not null;default:now()"`
}

// NoteCurrent is the current projection for fast reads and the
// unauthenticated shared-note surface. NotebookName is a denormalized copy
// of the owning notebook's name at last save.
type NoteCurrent struct {
	NoteID       uint64 `gorm:"primaryKey"`
	UserID       uint64 `gorm:"index;not null"`
	NotebookID   uint64 `gorm:"index;not null"`
	NotebookName string `gorm:"not null;default:''"`
	Title        string `gorm:"not null"`
	Content      string `gorm:"type:text;not null;default:''"`

	// Image URLs embedded in Content, extracted at save time.
	Images pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	VersionID uint64    `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"index;not null;default:now()"`
}

// NoteVersion is an immutable full snapshot of a note's editable fields.
// Rows are append-only; the id is the deterministic tie-break when two
// versions share a timestamp.
type NoteVersion struct {
	ID           uint64  `gorm:"primaryKey"`
	NoteID       uint64  `gorm:"index;not null"`
	UserID       uint64  `gorm:"index;not null"`
	Title        string  `gorm:"not null"`
	Content      string  `gorm:"type:text;not null;default:''"`
	EditedBy     uint64  `gorm:"not null"`
	IsReversion  bool    `gorm:"not null;default:false"`
	RevertedFrom *uint64 `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

// NoteView is the API-facing merge of a note and its current projection.
type NoteView struct {
	ID           uint64    `json:"id"`
	NotebookID   uint64    `json:"notebook_id"`
	NotebookName string    `json:"notebook_name"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func makeView(n *Note, cur *NoteCurrent) NoteView {
	return NoteView{
		ID:           n.ID,
		NotebookID:   cur.NotebookID,
		NotebookName: cur.NotebookName,
		Title:        cur.Title,
		Content:      cur.Content,
		Images:       []string(cur.Images),
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    cur.UpdatedAt,
	}
}
