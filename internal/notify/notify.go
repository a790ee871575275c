package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Pager delivers a page to one phone number (digits only).
type Pager interface {
	Page(ctx context.Context, phone, message string) error
}

// Multi pages through every configured sink and reports all failures.
type Multi []Pager

func (m Multi) Page(ctx context.Context, phone, message string) error {
	var err error
	for _, p := range m {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Page(ctx, phone, message))
	}
	return err
}
