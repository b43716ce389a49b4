package snapshot

import (
	"os"
	"path/filepath"
)

// FileCache keeps each snapshot as a JSON file in one directory.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *FileCache) Load(key string) ([]byte, error) {
	b, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	return b, err
}

// Store writes through a temp file and renames, so a crash mid-write never
// leaves a torn snapshot behind.
func (c *FileCache) Store(key string, data []byte) error {
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(key))
}
