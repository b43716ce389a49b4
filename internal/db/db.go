package db

import (
	"fmt"
	"time"

	"panne/internal/auth"
	"panne/internal/jobs"
	"panne/internal/note"

	"github.com/avast/retry-go/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	var gdb *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
			return err
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&note.Notebook{},
		&note.Note{},
		&note.NoteCurrent{},
		&note.NoteVersion{},
		&jobs.Job{},
		&auth.User{},
	); err != nil {
		return err
	}

	// Version ordering: timestamp desc with id as deterministic tie-break
	if err := gdb.Exec(`create index if not exists idx_versions_note_order on note_versions(note_id, created_at desc, id desc);`).Error; err != nil {
		return err
	}

	// Embedded image lookup (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_currents_images on note_currents using gin (images);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_currents_user_updated on note_currents(user_id, updated_at desc);`,
		`create index if not exists idx_notes_notebook on notes(notebook_id, user_id);`,
		`create index if not exists idx_notebooks_user_updated on notebooks(user_id, updated_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
