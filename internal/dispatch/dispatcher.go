package dispatch

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/notify"
	"github.com/hamed0406/oncallpager/internal/rotation"
)

// Config controls a Dispatcher.
type Config struct {
	DryRun   bool
	Location *time.Location // wall clock used for the rotation; nil means time.Local
}

// Dispatcher resolves a rotation offset to a contact and pages it.
//
// A process pages at most one phone: after the first successful page every
// further request is logged and skipped.
type Dispatcher struct {
	log   *zap.Logger
	out   io.Writer
	dir   rotation.Directory
	pager notify.Pager
	cfg   Config
	now   func() time.Time

	muted bool
	sent  bool
}

func New(log *zap.Logger, out io.Writer, dir rotation.Directory, pager notify.Pager, cfg Config) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{log: log, out: out, dir: dir, pager: pager, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Mute stops physical paging for the rest of the process. Resolution is still
// logged.
func (d *Dispatcher) Mute() { d.muted = true }

// Sent reports whether a page actually went out.
func (d *Dispatcher) Sent() bool { return d.sent }

// SendAlert pages the contact offset steps after the current primary.
func (d *Dispatcher) SendAlert(ctx context.Context, message string, offset int) error {
	now := d.now().In(d.cfg.Location)
	idx, err := rotation.Index(now, 0, offset, d.dir.Len())
	if err != nil {
		return err
	}
	c := d.dir.At(idx)
	fmt.Fprintf(d.out, "Paging %s with message: %s\n", c.Email, message)

	fields := []zap.Field{
		zap.Int("offset", offset),
		zap.Int("index", idx),
		zap.String("email", c.Email),
	}
	switch {
	case d.cfg.DryRun:
		d.log.Info("page_skipped_dry_run", fields...)
		return nil
	case d.muted:
		d.log.Info("page_skipped_muted", fields...)
		return nil
	case d.sent:
		d.log.Info("page_skipped_already_sent", fields...)
		return nil
	}

	if d.pager == nil {
		return fmt.Errorf("page %s: no pager configured", c.Email)
	}
	if err := d.pager.Page(ctx, c.Phone, message); err != nil {
		d.log.Error("page_failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("page %s: %w", c.Email, err)
	}
	d.sent = true
	d.log.Info("page_sent", fields...)
	return nil
}
