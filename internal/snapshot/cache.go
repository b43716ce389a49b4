// Package snapshot keeps a local, possibly stale copy of server data so the
// caller can render something immediately while the authoritative fetch is
// in flight. It is a read-path latency shortcut, not a coherence protocol:
// the fetch result always overwrites the snapshot wholesale.
package snapshot

import (
	"errors"
	"fmt"
)

// ErrMiss is returned by a Cache when no snapshot exists for the key.
var ErrMiss = errors.New("snapshot miss")

// Cache stores one serialized snapshot per key, overwritten wholesale.
type Cache interface {
	Load(key string) ([]byte, error)
	Store(key string, data []byte) error
}

func NotesKey(userID uint64) string     { return fmt.Sprintf("notes_%d", userID) }
func NotebooksKey(userID uint64) string { return fmt.Sprintf("notebooks_%d", userID) }
