package repo

import (
	"context"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// StatusStore persists alert lifecycle records between runs. One run owns the
// store at a time; implementations do not guard against concurrent processes.
type StatusStore interface {
	// Load returns the tracked alerts with every NEW record promoted to OLD.
	// An absent or empty store yields an empty map.
	Load(ctx context.Context) (domain.StatusMap, error)
	// Save replaces the persisted state. With suppress set an empty map is
	// written instead, discarding everything tracked so far.
	Save(ctx context.Context, m domain.StatusMap, suppress bool) error
}

// StatusReader exposes the persisted state without the load-time promotion.
type StatusReader interface {
	Peek(ctx context.Context) (domain.StatusMap, error)
}
