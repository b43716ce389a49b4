package note

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateNotebook(ctx context.Context, nb *Notebook) error {
	return s.db.WithContext(ctx).Create(nb).Error
}

func (s *GormStore) GetNotebook(ctx context.Context, userID, id uint64) (*Notebook, error) {
	var nb Notebook
	if err := s.db.WithContext(ctx).
		Where("id=? AND user_id=?", id, userID).
		First(&nb).Error; err != nil {
		return nil, notFound(err)
	}
	return &nb, nil
}

func (s *GormStore) FirstNotebook(ctx context.Context, userID uint64) (*Notebook, error) {
	var nb Notebook
	if err := s.db.WithContext(ctx).
		Where("user_id=?", userID).
		Order("created_at asc, id asc").
		First(&nb).Error; err != nil {
		return nil, notFound(err)
	}
	return &nb, nil
}

func (s *GormStore) ListNotebooks(ctx context.Context, userID uint64) ([]Notebook, error) {
	var rows []Notebook
	err := s.db.WithContext(ctx).
		Where("user_id=?", userID).
		Order("updated_at desc").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) DeleteNotebook(ctx context.Context, userID, id uint64) error {
	return s.db.WithContext(ctx).
		Where("id=? AND user_id=?", id, userID).
		Delete(&Notebook{}).Error
}

func (s *GormStore) AddNoteCount(ctx context.Context, userID, notebookID uint64, delta int64) error {
	return s.db.WithContext(ctx).Exec(`
update notebooks
set note_count = greatest(note_count + ?, 0), updated_at = now()
where id=? and user_id=?
`, delta, notebookID, userID).Error
}

func (s *GormStore) SetNoteCount(ctx context.Context, userID, notebookID uint64, n int64) error {
	return s.db.WithContext(ctx).Exec(`
update notebooks set note_count = ?, updated_at = now()
where id=? and user_id=?
`, n, notebookID, userID).Error
}

func (s *GormStore) CountNotes(ctx context.Context, userID, notebookID uint64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Note{}).
		Where("notebook_id=? AND user_id=?", notebookID, userID).
		Count(&n).Error
	return n, err
}

func (s *GormStore) CreateNote(ctx context.Context, n *Note) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) GetNote(ctx context.Context, userID, id uint64) (*Note, error) {
	var n Note
	if err := s.db.WithContext(ctx).
		Where("id=? AND user_id=?", id, userID).
		First(&n).Error; err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *GormStore) UpdateNote(ctx context.Context, n *Note) error {
	return s.db.WithContext(ctx).Save(n).Error
}

func (s *GormStore) DeleteNote(ctx context.Context, userID, id uint64) error {
	return s.db.WithContext(ctx).
		Where("id=? AND user_id=?", id, userID).
		Delete(&Note{}).Error
}

func (s *GormStore) ListNoteIDs(ctx context.Context, userID, notebookID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&Note{}).
		Where("notebook_id=? AND user_id=?", notebookID, userID).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) PutCurrent(ctx context.Context, cur *NoteCurrent) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "note_id"}},
			UpdateAll: true,
		}).
		Create(cur).Error
}

func (s *GormStore) GetCurrent(ctx context.Context, userID, noteID uint64) (*NoteCurrent, error) {
	var cur NoteCurrent
	if err := s.db.WithContext(ctx).
		Where("note_id=? AND user_id=?", noteID, userID).
		First(&cur).Error; err != nil {
		return nil, notFound(err)
	}
	return &cur, nil
}

func (s *GormStore) ListCurrents(ctx context.Context, userID uint64) ([]NoteCurrent, error) {
	var rows []NoteCurrent
	err := s.db.WithContext(ctx).
		Where("user_id=?", userID).
		Order("updated_at desc").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) DeleteCurrent(ctx context.Context, userID, noteID uint64) error {
	return s.db.WithContext(ctx).
		Where("note_id=? AND user_id=?", noteID, userID).
		Delete(&NoteCurrent{}).Error
}

func (s *GormStore) AppendVersion(ctx context.Context, v *NoteVersion) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) GetVersion(ctx context.Context, userID, noteID, versionID uint64) (*NoteVersion, error) {
	var v NoteVersion
	if err := s.db.WithContext(ctx).
		Where("id=? AND note_id=? AND user_id=?", versionID, noteID, userID).
		First(&v).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (s *GormStore) ListVersions(ctx context.Context, userID, noteID uint64) ([]NoteVersion, error) {
	var rows []NoteVersion
	err := s.db.WithContext(ctx).
		Where("note_id=? AND user_id=?", noteID, userID).
		Order("created_at desc, id desc").
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) DeleteVersions(ctx context.Context, userID, noteID uint64) error {
	return s.db.WithContext(ctx).
		Where("note_id=? AND user_id=?", noteID, userID).
		Delete(&NoteVersion{}).Error
}
