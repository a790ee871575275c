package pager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/domain"
	"github.com/hamed0406/oncallpager/internal/lifecycle"
)

// Report summarizes one fetch-and-escalate cycle.
type Report struct {
	RunID      string
	Fetched    int
	Decisions  []lifecycle.Decision
	Suppressed bool
	Purged     int
	Remaining  domain.StatusMap
}

// Run performs one cycle: load tracked alerts, drain the mailbox through the
// lifecycle engine, page for NEW (primary) and OLD (backup) alerts, forget the
// settled ones and persist the rest. Any collaborator failure aborts before
// the status is written; the next cron run is the retry.
func (a *App) Run(ctx context.Context) (*Report, error) {
	if a.store == nil || a.source == nil {
		return nil, errors.New("pager: run needs a status store and a mail source")
	}
	rep := &Report{RunID: uuid.NewString()}
	log := a.log.With(zap.String("run_id", rep.RunID))

	records, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load status: %w", err)
	}
	engine, err := lifecycle.NewEngine(records, a.patterns, log)
	if err != nil {
		return nil, err
	}

	if err := a.drain(ctx, engine, rep); err != nil {
		return nil, err
	}
	records = engine.Records()
	log.Info("mail_drained", zap.Int("fetched", rep.Fetched), zap.Int("tracked", len(records)))

	rep.Suppressed = engine.Suppressed()
	if rep.Suppressed {
		fmt.Fprintln(a.out, "At least one reply found muting current alarms")
		a.dispatch.Mute()
	}

	rep.Decisions = engine.Decide()
	for _, d := range rep.Decisions {
		msg := "Alert. Please check your email. Subject: " + d.Record.Subject + a.footerLine()
		if err := a.dispatch.SendAlert(ctx, msg, d.Offset); err != nil {
			return nil, err
		}
	}

	rep.Purged = engine.Purge()
	if err := a.store.Save(ctx, records, a.dryRun); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}
	rep.Remaining = records.Clone()
	if a.dryRun {
		rep.Remaining = domain.StatusMap{}
	}
	log.Info("run_complete",
		zap.Int("pages", len(rep.Decisions)),
		zap.Int("purged", rep.Purged),
		zap.Bool("suppressed", rep.Suppressed),
		zap.Bool("dry_run", a.dryRun),
	)
	a.printStatus(rep.Remaining)
	return rep, nil
}

func (a *App) drain(ctx context.Context, engine *lifecycle.Engine, rep *Report) (err error) {
	defer func() {
		if cerr := a.source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close mailbox: %w", cerr)
		}
	}()
	events, err := a.source.FetchNew(ctx)
	if err != nil {
		return fmt.Errorf("fetch mail: %w", err)
	}
	rep.Fetched = len(events)
	fmt.Fprintf(a.out, "Found %d new emails.\n", len(events))
	for _, ev := range events {
		engine.Process(ev)
		if err := a.source.Acknowledge(ctx, ev); err != nil {
			return fmt.Errorf("acknowledge mail: %w", err)
		}
	}
	return nil
}

func (a *App) footerLine() string {
	if a.footer == "" {
		return ""
	}
	return "\n" + a.footer
}

func (a *App) printStatus(m domain.StatusMap) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintln(a.out, "Status : Message ID")
	for _, id := range m.Keys() {
		fmt.Fprintf(a.out, "%s : %s\n", m[id].Status, id)
	}
}
