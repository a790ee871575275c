package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/config"
	"github.com/hamed0406/oncallpager/internal/contacts"
	"github.com/hamed0406/oncallpager/internal/httpapi"
	apimw "github.com/hamed0406/oncallpager/internal/httpapi/middleware"
	"github.com/hamed0406/oncallpager/internal/lifecycle"
	"github.com/hamed0406/oncallpager/internal/logging"
	"github.com/hamed0406/oncallpager/internal/mailsource"
	"github.com/hamed0406/oncallpager/internal/notify"
	"github.com/hamed0406/oncallpager/internal/pager"
	"github.com/hamed0406/oncallpager/internal/repo"
	"github.com/hamed0406/oncallpager/internal/repo/file"
	"github.com/hamed0406/oncallpager/internal/repo/memory"
	"github.com/hamed0406/oncallpager/internal/scheduler"
)

var (
	configFile string
	dryRun     bool
	offsetDays int
	debug      bool
	ephemeral  bool

	message  string
	sender   string
	receiver string
	interval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "pager",
	Short: "Handle pager rotations and alerts",
	Long: `Cronable pager for alert mails.

For each mail whose subject matches the alert pattern the thread is tracked:
  * the first run that sees it pages this week's primary contact,
  * a reply to the thread mutes the alert,
  * if the next run still sees no reply, the backup is paged and the alert
    is forgotten.

Run without a subcommand to perform one fetch-and-escalate cycle.`,
	SilenceUsage: true,
	RunE:         runCycle,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch new mail and page or escalate (default action)",
	RunE:  runCycle,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the rotation and the current primary and backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, app *pager.App) error {
			text, err := app.Info(offsetDays)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

var mailInfoCmd = &cobra.Command{
	Use:   "mail-info",
	Short: "Mail the rotation and the current primary and backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, app *pager.App) error {
			return app.MailInfo(ctx, sender, receiver, offsetDays)
		})
	},
}

var callCmd = &cobra.Command{
	Use:   "call <offset>",
	Short: "Page a contact: 0 is the primary, 1 the backup, 2 the secondary backup and so on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := strconv.Atoi(args[0])
		if err != nil || offset < 0 {
			return fmt.Errorf("offset must be a non-negative integer, got %q", args[0])
		}
		return withApp(cmd, true, func(ctx context.Context, app *pager.App) error {
			return app.Call(ctx, message, offset)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the fetch-and-escalate cycle on a timer instead of from cron",
	RunE:  runWatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rotation and alert status over HTTP",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", os.Getenv("PAGER_CONFIG"), "YAML config file (env vars override it)")
	pf.BoolVar(&dryRun, "dry-run", false, "Do not wake people up. Output information to console instead. Clears tracked alerts.")
	pf.IntVar(&offsetDays, "offset-days", 0, "Days to add to the current time, to preview the rotation at a future / past date")
	pf.BoolVar(&debug, "debug", false, "Debug logging")
	pf.BoolVar(&ephemeral, "ephemeral", false, "Track alerts in memory only; the status file is neither read nor written")

	callCmd.Flags().StringVar(&message, "msg", pager.DefaultMessage, "Message to send")
	mailInfoCmd.Flags().StringVar(&sender, "sender", "", "Send the rotation mail from this address")
	mailInfoCmd.Flags().StringVar(&receiver, "receiver", "", "Send the rotation mail to this address")
	_ = mailInfoCmd.MarkFlagRequired("sender")
	_ = mailInfoCmd.MarkFlagRequired("receiver")

	watchCmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Time between cycles")

	rootCmd.AddCommand(runCmd, infoCmd, mailInfoCmd, callCmd, watchCmd, serveCmd)
}

// env is what every command shares once configuration is loaded.
type env struct {
	cfg    config.Config
	log    *zap.Logger
	dir    *contacts.Directory
	loc    *time.Location
	status statusStore
}

type statusStore interface {
	repo.StatusStore
	repo.StatusReader
}

func openStatus(path string, log *zap.Logger, inMemory bool) (statusStore, error) {
	if inMemory {
		log.Info("status_ephemeral", zap.String("skipped_path", path))
		return memory.New(), nil
	}
	return file.New(path, log)
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(cfg.LogDir, debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	dir, err := contacts.Load(cfg.ContactsFile)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	status, err := openStatus(cfg.StatusFile, log, ephemeral)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, dir: dir, loc: loc, status: status}, nil
}

func newPager(e *env) (notify.Pager, error) {
	if err := e.cfg.ValidatePaging(); err != nil {
		return nil, err
	}
	tw, err := notify.NewTwilio(notify.TwilioConfig{
		AccountSID:  e.cfg.TwilioAccountSID,
		AuthToken:   e.cfg.TwilioAuthToken,
		From:        e.cfg.MonitorPhone,
		CountryCode: e.cfg.CountryCode,
		Voice:       e.cfg.VoiceCall,
	})
	if err != nil {
		return nil, err
	}
	sinks := notify.Multi{&notify.Retry{Inner: tw, Attempts: e.cfg.PageAttempts, Backoff: e.cfg.PageBackoff}}
	if s := notify.NewSlack(e.cfg.SlackWebhook); s != nil {
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func newSource(e *env) (mailsource.Source, error) {
	if err := e.cfg.ValidateMailbox(); err != nil {
		return nil, err
	}
	if e.cfg.MailDir != "" {
		return mailsource.NewDir(e.cfg.MailDir), nil
	}
	return mailsource.NewPOP3(mailsource.POP3Config{
		Host:     e.cfg.POP3Host,
		Port:     e.cfg.POP3Port,
		TLS:      e.cfg.POP3TLS,
		Username: e.cfg.MonitorEmail,
		Password: e.cfg.MonitorPass,
		Timeout:  e.cfg.MailTimeout,
	}, e.log)
}

func newApp(e *env, out io.Writer, paging bool, src mailsource.Source) (*pager.App, error) {
	opts := pager.Options{
		Logger:    e.log,
		Out:       out,
		Directory: e.dir,
		Store:     e.status,
		Source:    src,
		Patterns:  lifecycle.Patterns{Alert: e.cfg.AlertPattern, Reply: e.cfg.ReplyPattern},
		Location:  e.loc,
		DryRun:    dryRun,
		Footer:    e.cfg.PageFooter,
		Mailer: notify.NewMailer(notify.MailerConfig{
			Host:     e.cfg.SMTPHost,
			Port:     e.cfg.SMTPPort,
			Username: e.cfg.SMTPUser,
			Password: e.cfg.SMTPPass,
			TLS:      e.cfg.SMTPTLS,
		}),
	}
	if paging && !dryRun {
		p, err := newPager(e)
		if err != nil {
			return nil, err
		}
		opts.Pager = p
	}
	return pager.New(opts)
}

func withApp(cmd *cobra.Command, paging bool, fn func(context.Context, *pager.App) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	app, err := newApp(e, cmd.OutOrStdout(), paging, nil)
	if err != nil {
		return err
	}
	if err := fn(cmd.Context(), app); err != nil {
		e.log.Error("command_failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}

func runCycle(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()
	return cycle(cmd.Context(), e, cmd.OutOrStdout())
}

// cycle builds a fresh session for one fetch-and-escalate pass.
func cycle(ctx context.Context, e *env, out io.Writer) error {
	src, err := newSource(e)
	if err != nil {
		return err
	}
	app, err := newApp(e, out, true, src)
	if err != nil {
		return multierr.Append(err, src.Close())
	}
	if _, err := app.Run(ctx); err != nil {
		e.log.Error("run_failed", zap.Error(err))
		return err
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()
	c := scheduler.NewCycler(func(ctx context.Context) error { return cycle(ctx, e, out) }, interval, e.log)
	e.log.Info("watch_start", zap.Duration("interval", interval))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	call := func(ctx context.Context, msg string, offset int) error {
		// a fresh App per request: each manual page is its own session
		app, err := newApp(e, io.Discard, true, nil)
		if err != nil {
			return err
		}
		return app.Call(ctx, msg, offset)
	}
	api := httpapi.NewServer(e.log, e.dir, e.status, call, e.loc)
	keys := apimw.Keys{Read: e.cfg.ReadAPIKeys, Admin: e.cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           api.Router(keys, e.cfg.AllowedOrigins, e.cfg.PageRPM, e.cfg.PageBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	e.log.Info("api_listen", zap.String("addr", e.cfg.Addr))
	fmt.Fprintln(cmd.OutOrStdout(), "listening on", e.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
