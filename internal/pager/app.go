// Package pager wires the rotation, lifecycle engine, dispatcher and the
// external collaborators into the commands the CLI exposes.
package pager

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/contacts"
	"github.com/hamed0406/oncallpager/internal/dispatch"
	"github.com/hamed0406/oncallpager/internal/lifecycle"
	"github.com/hamed0406/oncallpager/internal/mailsource"
	"github.com/hamed0406/oncallpager/internal/notify"
	"github.com/hamed0406/oncallpager/internal/repo"
)

const DefaultMessage = "An alert has been issued. Please check your email."

// InfoMailer sends the rotation notice.
type InfoMailer interface {
	SendInfoEmail(ctx context.Context, sender, receiver, bodyHTML string) error
}

// Options configure an App. Collaborators that a command does not use may be nil.
type Options struct {
	Logger    *zap.Logger
	Out       io.Writer
	Directory *contacts.Directory
	Store     repo.StatusStore
	Source    mailsource.Source
	Pager     notify.Pager
	Mailer    InfoMailer
	Patterns  lifecycle.Patterns
	Location  *time.Location
	DryRun    bool
	Footer    string
	Now       func() time.Time
}

type App struct {
	log      *zap.Logger
	out      io.Writer
	dir      *contacts.Directory
	store    repo.StatusStore
	source   mailsource.Source
	mailer   InfoMailer
	patterns lifecycle.Patterns
	loc      *time.Location
	dryRun   bool
	footer   string
	now      func() time.Time
	dispatch *dispatch.Dispatcher
}

func New(o Options) (*App, error) {
	if o.Directory == nil {
		return nil, errors.New("pager: contact directory required")
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	a := &App{
		log:      o.Logger,
		out:      o.Out,
		dir:      o.Directory,
		store:    o.Store,
		source:   o.Source,
		mailer:   o.Mailer,
		patterns: o.Patterns,
		loc:      o.Location,
		dryRun:   o.DryRun,
		footer:   o.Footer,
		now:      o.Now,
	}
	a.dispatch = dispatch.New(o.Logger, o.Out, o.Directory, o.Pager, dispatch.Config{
		DryRun:   o.DryRun,
		Location: o.Location,
	}).WithClock(o.Now)
	return a, nil
}

// Call pages the contact offset steps after the current primary.
func (a *App) Call(ctx context.Context, message string, offset int) error {
	if message == "" {
		message = DefaultMessage
	}
	return a.dispatch.SendAlert(ctx, message, offset)
}

// MailInfo emails the rotation notice.
func (a *App) MailInfo(ctx context.Context, sender, receiver string, offsetDays int) error {
	if a.mailer == nil {
		return errors.New("pager: no mailer configured")
	}
	body, err := a.InfoHTML(offsetDays)
	if err != nil {
		return err
	}
	if err := a.mailer.SendInfoEmail(ctx, sender, receiver, body); err != nil {
		return err
	}
	a.log.Info("info_mailed", zap.String("receiver", receiver))
	return nil
}
