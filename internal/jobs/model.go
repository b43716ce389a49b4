package jobs

import "time"

const (
	// TypeNotebookPurge sweeps notes left behind by a best-effort cascade
	// after their notebook row is already gone.
	TypeNotebookPurge = "NOTEBOOK_PURGE"
	// TypeNotebookReconcile recomputes a notebook's note_count from actual
	// membership.
	TypeNotebookReconcile = "NOTEBOOK_RECONCILE"
)

// Job is one pending repair. Both job types target a single notebook, so
// the target is a plain column rather than an opaque payload.
type Job struct {
	ID         uint64 `gorm:"primaryKey"`
	UserID     uint64 `gorm:"index;not null"`
	NotebookID uint64 `gorm:"index;not null"`

	Type string `gorm:"type:text;not null"` // NOTEBOOK_PURGE / NOTEBOOK_RECONCILE

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
