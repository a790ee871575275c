// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/oncallpager/internal/config"
	"github.com/hamed0406/oncallpager/internal/contacts"
	"github.com/hamed0406/oncallpager/internal/rotation"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(os.Getenv("PAGER_CONFIG"))
	if err != nil {
		fail(err.Error())
	}

	dir, err := contacts.Load(cfg.ContactsFile)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("%s: %d contacts", cfg.ContactsFile, dir.Len()))
	if dir.Len() < 2 {
		warn("only one contact; primary and backup are the same person.")
	}

	loc, err := cfg.Location()
	if err != nil {
		fail(err.Error())
	}
	if shift, err := rotation.Resolve(dir, time.Now().In(loc), 0); err == nil {
		ok("primary this week: " + shift.Primary.Email + ", backup: " + shift.Backup.Email)
	}

	if err := cfg.ValidateMailbox(); err != nil {
		fail(err.Error())
	}
	if cfg.MailDir != "" {
		ok("reading mail from directory " + cfg.MailDir)
	} else {
		ok(fmt.Sprintf("reading mail from pop3 %s:%d as %s", cfg.POP3Host, cfg.POP3Port, cfg.MonitorEmail))
	}

	if err := cfg.ValidatePaging(); err != nil {
		fail(err.Error())
	}
	ok("paging from " + cfg.MonitorPhone)
	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty; pages go out by SMS/voice only.")
	}

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty (POST /api/page will 401).")
	}
	if len(cfg.ReadAPIKeys) == 0 {
		warn("READ_API_KEYS is empty; rotation and alert status are readable without a key.")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; browsers will be blocked by CORS for cross-origin requests.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	ok("preflight passed")
}
