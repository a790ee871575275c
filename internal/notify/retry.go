package notify

import (
	"context"
	"fmt"
	"time"
)

// Retry re-sends a page that failed. The whole Page call is repeated, so a
// sink that partially delivered before failing may deliver twice.
type Retry struct {
	Inner    Pager
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Page(ctx context.Context, phone, message string) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		if last = r.Inner.Page(ctx, phone, message); last == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.Backoff):
			}
		}
	}
	return fmt.Errorf("page failed after %d attempts: %w", attempts, last)
}
