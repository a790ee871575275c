package mailsource

import (
	"context"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// Source yields the mails waiting in the monitored mailbox in arrival order.
type Source interface {
	FetchNew(ctx context.Context) ([]domain.MailEvent, error)
	// Acknowledge marks ev consumed so the next run does not see it again.
	Acknowledge(ctx context.Context, ev domain.MailEvent) error
	Close() error
}
