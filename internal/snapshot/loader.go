package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Loader reconciles the local snapshot under Key with the authoritative
// Fetch. The revision counter makes the race between a slow fetch and a
// local mutation deterministic: a fetch that started before the mutation
// cannot clobber it.
type Loader[T any] struct {
	Cache Cache
	Key   string
	Fetch func(ctx context.Context) (T, error)

	mu   sync.Mutex
	rev  uint64
	val  T
	have bool
}

// Load returns the freshest value available. A parseable snapshot is handed
// to onProvisional before the fetch; when the fetch succeeds its result
// replaces the snapshot entirely. When the fetch fails and a provisional
// value exists, the failure is logged and the provisional value returned.
func (l *Loader[T]) Load(ctx context.Context, onProvisional func(T)) (T, error) {
	l.mu.Lock()
	if !l.have {
		if b, err := l.Cache.Load(l.Key); err == nil {
			var provisional T
			if jerr := json.Unmarshal(b, &provisional); jerr == nil {
				l.val = provisional
				l.have = true
			} else {
				// corrupt snapshot: treat as absent
				slog.Debug("discarding unparseable snapshot", "key", l.Key)
			}
		}
	}
	have := l.have
	provisional := l.val
	start := l.rev
	l.mu.Unlock()

	if have && onProvisional != nil {
		onProvisional(provisional)
	}

	fetched, err := l.Fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		if have {
			slog.Warn("authoritative fetch failed, keeping provisional snapshot",
				"key", l.Key, "err", err)
			return l.val, nil
		}
		var zero T
		return zero, err
	}

	if l.rev != start {
		// a local mutation landed while the fetch was in flight; it wins
		return l.val, nil
	}

	l.val = fetched
	l.have = true
	l.persist()
	return l.val, nil
}

// Set records a local mutation: the value becomes the new snapshot and any
// in-flight fetch that started earlier is rejected on completion.
func (l *Loader[T]) Set(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rev++
	l.val = v
	l.have = true
	l.persist()
}

// Value returns the last known value, provisional or confirmed.
func (l *Loader[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val, l.have
}

func (l *Loader[T]) persist() {
	b, err := json.Marshal(l.val)
	if err != nil {
		slog.Warn("failed to serialize snapshot", "key", l.Key, "err", err)
		return
	}
	if err := l.Cache.Store(l.Key, b); err != nil {
		slog.Warn("failed to persist snapshot", "key", l.Key, "err", err)
	}
}
